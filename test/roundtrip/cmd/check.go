package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check message...",
	Short: "Lists the compliance violations found in each message",
	Args:  cobra.MinimumNArgs(1),
	RunE:  RunCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// RunCheck prints every violation recorded while parsing the named files.
func RunCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, path := range args {
		msgs, err := parseFile(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}

		for i, m := range msgs {
			vs := m.Violations()
			if len(vs) == 0 {
				continue
			}

			fmt.Fprintf(out, "%s[%d]:\n", path, i)
			for _, v := range vs {
				fmt.Fprintf(out, "  %s\n", v)
			}
		}
	}

	return nil
}
