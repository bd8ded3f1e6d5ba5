package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/vecdb/cmd/vecdb/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if formatOutput != "table" {
			return outputResult(cmd, build.Get())
		}
		fmt.Fprintln(cmd.OutOrStdout(), build.String())
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "  go:     %s\n", build.Get().Go)
			if cfg, err := getConfig(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  config: %s\n", cfg.Path())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "  config: (unavailable: %v)\n", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
