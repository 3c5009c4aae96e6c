package cli

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/issuesync/pkg/application"
	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
)

var (
	reconcileOffline bool
	reconcileOutput  string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <file>",
	Short: "Classify drift between the document and the tracker, read-only",
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

		client, err := newClient(cmd.Context(), cfg, reconcileOffline || cfg.Offline)
		if err != nil {
			return err
		}

		svc := application.NewReconcileService(client)
		if cfg.SlugPattern != "" {
			re, err := regexp.Compile(cfg.SlugPattern)
			if err != nil {
				return fmt.Errorf("invalid slug_pattern: %w", err)
			}
			svc.ParseOptions = spec.Options{SlugPattern: re}
		}

		report, err := svc.Run(cmd.Context(), source)
		if err != nil {
			return err
		}

		if reconcileOutput == "json" {
			if err := printJSON(report); err != nil {
				return err
			}
		} else {
			renderReport(report)
		}

		if !report.InSync() {
			return fmt.Errorf("%w: %d entries", ErrDriftDetected, len(report.Entries))
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileOffline, "offline", false, "Classify drift without contacting the tracker")
	reconcileCmd.Flags().StringVarP(&reconcileOutput, "output", "o", "text", "Output format (text, json)")
	RootCmd.AddCommand(reconcileCmd)
}
