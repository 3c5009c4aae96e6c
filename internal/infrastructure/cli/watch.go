package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/issuesync/internal/infrastructure/watch"
	"github.com/felixgeelhaar/issuesync/pkg/application"
)

var (
	watchApply    bool
	watchPrune    bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-plan the document on every change until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		path := args[0]
		mode := "planning"
		if watchApply {
			mode = "applying"
		}
		fmt.Printf("Watching %s, %s on change...\n", path, mode)

		pass := func(ctx context.Context) {
			source, err := readDocument(path)
			if err != nil {
				fmt.Println(errStyle.Render(err.Error()))
				return
			}
			svc, err := newSyncService(ctx, cfg, cfg.Offline && !watchApply, 0, 0)
			if err != nil {
				fmt.Println(errStyle.Render(err.Error()))
				return
			}

			fmt.Printf("\nChange detected at %s\n", time.Now().Format("15:04:05"))
			summary, err := svc.Run(ctx, source, application.RunOptions{
				DryRun:    !watchApply,
				Prune:     watchPrune,
				EmbedPlan: !watchApply,
			})
			if err != nil {
				fmt.Println(errStyle.Render(err.Error()))
				return
			}
			if watchApply {
				renderSummary(summary)
			} else {
				renderPlan(summary.Plan)
			}
		}

		ctx := cmd.Context()
		pass(ctx)

		w, err := watch.NewFileWatcher(path, watchDebounce, func() { pass(ctx) })
		if err != nil {
			return err
		}
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchApply, "apply", false, "Run a full sync instead of a plan on each change")
	watchCmd.Flags().BoolVar(&watchPrune, "prune", false, "Include close operations for managed remote-only issues")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet window before re-running")
	RootCmd.AddCommand(watchCmd)
}
