package cli

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/issuesync/pkg/domain/spec"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Parse a spec document and report every violation",
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

		opts := spec.Options{}
		if cfg.SlugPattern != "" {
			re, err := regexp.Compile(cfg.SlugPattern)
			if err != nil {
				return fmt.Errorf("invalid slug_pattern: %w", err)
			}
			opts.SlugPattern = re
		}

		specs, err := spec.ParseWithOptions(source, opts)
		if err != nil {
			var pe *spec.ParseError
			if errors.As(err, &pe) {
				fmt.Println(errStyle.Render(fmt.Sprintf("%s: %d problem(s)", args[0], len(pe.Violations))))
				for _, v := range pe.Violations {
					fmt.Printf("  %s\n", v)
				}
			}
			return err
		}

		fmt.Printf("%s: %d issue entries, all valid\n", args[0], len(specs))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(validateCmd)
}
