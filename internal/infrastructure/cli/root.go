package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configPath string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "issuesync",
	Version: Version,
	Short:   "Declarative issue tracking from a Markdown document",
	Long: `Issuesync treats a Markdown document as the source of truth for a
repository's issues. It parses the document, diffs it against the tracker,
and applies the minimal set of create, update, and close operations.
Running it twice in a row is a no-op.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

// ExecuteContext runs the root command under ctx so long-lived commands
// like watch stop cleanly on interrupt.
func ExecuteContext(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default .issuesync.yaml)")
}
