package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/issuesync/pkg/application"
)

var (
	syncDryRun  bool
	syncPrune   bool
	syncOffline bool
	syncWorkers int
	syncBatch   int
	syncOutput  string
)

var syncCmd = &cobra.Command{
	Use:   "sync <file>",
	Short: "Converge the tracker to the spec document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		source, err := readDocument(args[0])
		if err != nil {
			return err
		}

		// Offline runs go against the in-memory tracker; forcing preview
		// keeps mock identifiers out of the persisted mapping.
		offline := syncOffline || cfg.Offline
		svc, err := newSyncService(cmd.Context(), cfg, offline, syncWorkers, syncBatch)
		if err != nil {
			return err
		}

		summary, err := svc.Run(cmd.Context(), source, application.RunOptions{
			DryRun: syncDryRun || cfg.DryRun || offline,
			Prune:  syncPrune,
		})
		if err != nil {
			return err
		}

		if syncOutput == "json" {
			if err := printJSON(summary); err != nil {
				return err
			}
		} else {
			renderSummary(summary)
		}

		if summary.Outcome != application.OutcomeSuccess {
			if summary.Failed > 0 {
				return fmt.Errorf("%w: %d of %d items failed", ErrPartialFailure, summary.Failed, len(summary.Results))
			}
			return fmt.Errorf("%w: mapping save failed: %s", ErrPartialFailure, summary.PersistenceError)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Plan and report without touching the tracker or mapping")
	syncCmd.Flags().BoolVar(&syncPrune, "prune", false, "Close managed remote-only issues")
	syncCmd.Flags().BoolVar(&syncOffline, "offline", false, "Bypass all remote calls; implies --dry-run")
	syncCmd.Flags().IntVar(&syncWorkers, "workers", 0, "Concurrent apply workers (0 uses config or default)")
	syncCmd.Flags().IntVar(&syncBatch, "batch", 0, "Items per worker batch (0 uses config or default)")
	syncCmd.Flags().StringVarP(&syncOutput, "output", "o", "text", "Output format (text, json)")
	RootCmd.AddCommand(syncCmd)
}
