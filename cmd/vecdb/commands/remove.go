package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/haivivi/vecdb/pkg/cli"
)

var clearYes bool

var removeCmd = &cobra.Command{
	Use:     "remove <content>...",
	Aliases: []string{"rm"},
	Short:   "Remove documents by content",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var missing []string
		removed := 0
		err := withSession(cmd.Context(), func(s *session) error {
			for _, content := range args {
				if s.index.Remove(content) {
					removed++
				} else {
					missing = append(missing, content)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, m := range missing {
			cli.PrintWarning(cmd.ErrOrStderr(), "%q not found", m)
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Removed %d document(s)", removed)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return errors.New("clear removes every document; pass --yes to confirm")
		}
		var n int
		err := withSession(cmd.Context(), func(s *session) error {
			n = s.index.Count()
			s.index.Clear()
			return nil
		})
		if err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "Cleared %d document(s)", n)
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "confirm removing every document")
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(clearCmd)
}
