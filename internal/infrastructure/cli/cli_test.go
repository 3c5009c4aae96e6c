package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	RootCmd.SetArgs(args)
	return RootCmd.Execute()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "issues.md", "## api-timeouts\n```yaml\ntitle: Fix timeouts\n```\n")

	if err := run(t, "validate", doc); err != nil {
		t.Errorf("valid document must pass: %v", err)
	}

	bad := writeFile(t, dir, "bad.md", "## api-timeouts\nno block here\n")
	err := run(t, "validate", bad)
	var pe *spec.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("invalid document must return a ParseError, got %v", err)
	}
}

func TestPlanCommand_Offline(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "issuesync.yaml",
		"owner: acme\nrepo: widgets\nmapping_file: "+filepath.Join(dir, "mapping.json")+"\n")
	doc := writeFile(t, dir, "issues.md", "## api-timeouts\n```yaml\ntitle: Fix timeouts\n```\n")

	if err := run(t, "plan", "--config", cfg, "--offline", doc); err != nil {
		t.Errorf("offline plan must succeed without a token: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "mapping.json")); !os.IsNotExist(err) {
		t.Error("planning must not persist a mapping")
	}
}

func TestReconcileCommand_OfflineEnvNeedsNoToken(t *testing.T) {
	if os.Getenv("ISSUESYNC_TOKEN") != "" || os.Getenv("GITHUB_TOKEN") != "" {
		t.Skip("token present in environment")
	}
	t.Setenv("ISSUESYNC_OFFLINE", "1")

	dir := t.TempDir()
	cfg := writeFile(t, dir, "issuesync.yaml", "owner: acme\nrepo: widgets\n")
	doc := writeFile(t, dir, "issues.md", "## api-timeouts\n```yaml\ntitle: Fix timeouts\n```\n")

	err := run(t, "reconcile", "--config", cfg, doc)
	if !errors.Is(err, ErrDriftDetected) {
		t.Errorf("offline reconcile must run against the in-memory tracker and report spec-only drift, got %v", err)
	}
}

func TestSyncCommand_OfflineImpliesDryRun(t *testing.T) {
	if os.Getenv("ISSUESYNC_TOKEN") != "" || os.Getenv("GITHUB_TOKEN") != "" {
		t.Skip("token present in environment")
	}

	dir := t.TempDir()
	cfg := writeFile(t, dir, "issuesync.yaml",
		"owner: acme\nrepo: widgets\nmapping_file: "+filepath.Join(dir, "mapping.json")+"\n")
	doc := writeFile(t, dir, "issues.md", "## api-timeouts\n```yaml\ntitle: Fix timeouts\n```\n")

	if err := run(t, "sync", "--config", cfg, "--offline", doc); err != nil {
		t.Errorf("offline sync must bypass remote calls and the token check: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "mapping.json")); !os.IsNotExist(err) {
		t.Error("offline sync must not persist mock identifiers into the mapping")
	}
}

func TestSyncCommand_MissingTokenFails(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "issuesync.yaml", "owner: acme\nrepo: widgets\n")
	doc := writeFile(t, dir, "issues.md", "## api-timeouts\n```yaml\ntitle: Fix timeouts\n```\n")

	if os.Getenv("ISSUESYNC_TOKEN") != "" || os.Getenv("GITHUB_TOKEN") != "" {
		t.Skip("token present in environment")
	}
	// Flag values persist across Execute calls; force offline back off.
	if err := run(t, "sync", "--config", cfg, "--offline=false", doc); err == nil {
		t.Error("sync without a token must fail")
	}
}
