// Package config loads the .issuesync.yaml run configuration and applies
// environment overrides for the knobs the core consumes but does not own.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no --config flag
// is given.
const DefaultFile = ".issuesync.yaml"

// Config is the serialized run configuration. Secrets are never read from
// the file; they come from the environment only.
type Config struct {
	Owner       string `yaml:"owner"`
	Repo        string `yaml:"repo"`
	MappingFile string `yaml:"mapping_file"`
	SlugPattern string `yaml:"slug_pattern"`

	PreviewBudget int `yaml:"preview_budget"`
	SnapshotLimit int `yaml:"snapshot_limit"`

	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
	Threshold int `yaml:"threshold"`

	RetryAttempts int    `yaml:"retry_attempts"`
	RetryBase     string `yaml:"retry_base"`
	RetryMaxSleep string `yaml:"retry_max_sleep"`

	// Environment-only fields.
	Token         string `yaml:"-"`
	SigningSecret string `yaml:"-"`
	DryRun        bool   `yaml:"-"`
	Offline       bool   `yaml:"-"`
}

// Load reads path (or DefaultFile when empty), tolerating a missing file,
// then applies environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	cfg := &Config{MappingFile: ".issuesync/mapping.json"}

	// #nosec G304 -- path comes from the --config flag
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ISSUESYNC_TOKEN"); v != "" {
		c.Token = v
	} else if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("ISSUESYNC_SIGNING_SECRET"); v != "" {
		c.SigningSecret = v
	}
	if boolEnv("ISSUESYNC_DRY_RUN") {
		c.DryRun = true
	}
	if boolEnv("ISSUESYNC_OFFLINE") {
		c.Offline = true
	}
	if v := os.Getenv("ISSUESYNC_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RetryAttempts = n
		}
	}
	if v := os.Getenv("ISSUESYNC_RETRY_BASE"); v != "" {
		c.RetryBase = v
	}
	if v := os.Getenv("ISSUESYNC_RETRY_MAX_SLEEP"); v != "" {
		c.RetryMaxSleep = v
	}
}

func boolEnv(key string) bool {
	v := os.Getenv(key)
	return v == "1" || v == "true" || v == "yes"
}

// Collection identifies the target collection for mapping metadata.
func (c *Config) Collection() string {
	return c.Owner + "/" + c.Repo
}

// RetryBaseDelay parses the configured backoff base, zero when unset.
func (c *Config) RetryBaseDelay() (time.Duration, error) {
	return parseDuration(c.RetryBase, "retry_base")
}

// RetryMaxDelay parses the configured sleep cap, zero when unset.
func (c *Config) RetryMaxDelay() (time.Duration, error) {
	return parseDuration(c.RetryMaxSleep, "retry_max_sleep")
}

func parseDuration(v, field string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, v, err)
	}
	return d, nil
}

// Validate checks the fields a remote run cannot do without.
func (c *Config) Validate(offline bool) error {
	if offline {
		return nil
	}
	if c.Owner == "" || c.Repo == "" {
		return fmt.Errorf("owner and repo must be configured")
	}
	if c.Token == "" {
		return fmt.Errorf("no token configured (set ISSUESYNC_TOKEN or GITHUB_TOKEN)")
	}
	return nil
}
