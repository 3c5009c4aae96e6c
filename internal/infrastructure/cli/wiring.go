package cli

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/felixgeelhaar/issuesync/internal/infrastructure/config"
	gh "github.com/felixgeelhaar/issuesync/internal/infrastructure/github"
	"github.com/felixgeelhaar/issuesync/pkg/application"
	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
	"github.com/felixgeelhaar/issuesync/pkg/domain/tracker"
	"github.com/felixgeelhaar/issuesync/pkg/executor"
	"github.com/felixgeelhaar/issuesync/pkg/storage"
)

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func readDocument(path string) (string, error) {
	// #nosec G304 -- path is the positional argument
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read spec document: %w", err)
	}
	return string(data), nil
}

// newClient returns the tracker for a run. Offline runs get an empty
// in-memory tracker, so plans degrade to all-create previews without a
// token or network.
func newClient(ctx context.Context, cfg *config.Config, offline bool) (tracker.Client, error) {
	if offline {
		return tracker.NewMemoryClient(), nil
	}
	if err := cfg.Validate(false); err != nil {
		return nil, err
	}
	return gh.NewClient(ctx, cfg.Token, cfg.Owner, cfg.Repo), nil
}

// newSyncService wires the configured store, tracker, and knobs into a run
// pipeline.
func newSyncService(ctx context.Context, cfg *config.Config, offline bool, workers, batch int) (*application.SyncService, error) {
	client, err := newClient(ctx, cfg, offline)
	if err != nil {
		return nil, err
	}

	var secret []byte
	if cfg.SigningSecret != "" {
		secret = []byte(cfg.SigningSecret)
	}
	store := storage.NewFilesystemStore(cfg.MappingFile, cfg.Collection(), secret)

	svc := application.NewSyncService(store, client)
	if err := applyConfig(svc, cfg, workers, batch); err != nil {
		return nil, err
	}
	return svc, nil
}

func applyConfig(svc *application.SyncService, cfg *config.Config, workers, batch int) error {
	if cfg.SlugPattern != "" {
		re, err := regexp.Compile(cfg.SlugPattern)
		if err != nil {
			return fmt.Errorf("invalid slug_pattern: %w", err)
		}
		svc.ParseOptions = spec.Options{SlugPattern: re}
	}
	if cfg.PreviewBudget > 0 {
		svc.Planner.PreviewBudget = cfg.PreviewBudget
	}
	if cfg.SnapshotLimit > 0 {
		svc.SnapshotLimit = cfg.SnapshotLimit
	}

	if cfg.RetryAttempts > 0 {
		svc.Retry.MaxAttempts = cfg.RetryAttempts
	}
	base, err := cfg.RetryBaseDelay()
	if err != nil {
		return err
	}
	if base > 0 {
		svc.Retry.BaseDelay = base
	}
	maxDelay, err := cfg.RetryMaxDelay()
	if err != nil {
		return err
	}
	if maxDelay > 0 {
		svc.Retry.MaxDelay = maxDelay
	}

	svc.Executor = executor.Config{
		Workers:   pick(workers, cfg.Workers),
		BatchSize: pick(batch, cfg.BatchSize),
		Threshold: cfg.Threshold,
	}
	return nil
}

func pick(flag, file int) int {
	if flag > 0 {
		return flag
	}
	return file
}
