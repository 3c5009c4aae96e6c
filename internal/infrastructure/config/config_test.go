package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/issuesync/internal/infrastructure/config"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MappingFile != ".issuesync/mapping.json" {
		t.Errorf("MappingFile = %q", cfg.MappingFile)
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issuesync.yaml")
	content := "owner: acme\nrepo: widgets\nworkers: 8\nretry_base: 2s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Collection() != "acme/widgets" {
		t.Errorf("Collection() = %q", cfg.Collection())
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	base, err := cfg.RetryBaseDelay()
	if err != nil || base != 2*time.Second {
		t.Errorf("RetryBaseDelay() = %v, %v", base, err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ISSUESYNC_TOKEN", "tok-a")
	t.Setenv("GITHUB_TOKEN", "tok-b")
	t.Setenv("ISSUESYNC_DRY_RUN", "1")
	t.Setenv("ISSUESYNC_RETRY_ATTEMPTS", "7")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Token != "tok-a" {
		t.Errorf("ISSUESYNC_TOKEN must win over GITHUB_TOKEN, got %q", cfg.Token)
	}
	if !cfg.DryRun {
		t.Error("DryRun must be set from the environment")
	}
	if cfg.RetryAttempts != 7 {
		t.Errorf("RetryAttempts = %d", cfg.RetryAttempts)
	}
}

func TestLoad_GitHubTokenFallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "tok-b")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Token != "tok-b" {
		t.Errorf("Token = %q, want GITHUB_TOKEN fallback", cfg.Token)
	}
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{Owner: "acme", Repo: "widgets"}
	if err := cfg.Validate(false); err == nil {
		t.Error("missing token must fail validation")
	}
	if err := cfg.Validate(true); err != nil {
		t.Errorf("offline runs must not require a token: %v", err)
	}

	cfg.Token = "tok"
	if err := cfg.Validate(false); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	if err := (&config.Config{Token: "tok"}).Validate(false); err == nil {
		t.Error("missing owner/repo must fail validation")
	}
}

func TestRetryDurations_Invalid(t *testing.T) {
	cfg := &config.Config{RetryMaxSleep: "not-a-duration"}
	if _, err := cfg.RetryMaxDelay(); err == nil {
		t.Error("invalid duration must be rejected")
	}
}
