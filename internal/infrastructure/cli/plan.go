package cli

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/issuesync/pkg/application"
)

var (
	planOffline bool
	planPrune   bool
	planOutput  string
)

var planCmd = &cobra.Command{
	Use:   "plan <file>",
	Short: "Preview the operations a sync would apply, without mutating anything",
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

		svc, err := newSyncService(cmd.Context(), cfg, planOffline || cfg.Offline, 0, 0)
		if err != nil {
			return err
		}

		summary, err := svc.Run(cmd.Context(), source, application.RunOptions{
			DryRun:    true,
			Prune:     planPrune,
			EmbedPlan: true,
		})
		if err != nil {
			return err
		}

		if planOutput == "json" {
			return printJSON(summary)
		}
		renderPlan(summary.Plan)
		if summary.SpecChangedSinceLastSync {
			cmd.Println("Note: the document changed since the last successful sync.")
		}
		return nil
	},
}

func init() {
	planCmd.Flags().BoolVar(&planOffline, "offline", false, "Plan without contacting the tracker")
	planCmd.Flags().BoolVar(&planPrune, "prune", false, "Include close operations for managed remote-only issues")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "text", "Output format (text, json)")
	RootCmd.AddCommand(planCmd)
}
