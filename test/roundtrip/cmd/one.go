package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

var oneCmd = &cobra.Command{
	Use:   "one message",
	Short: "Shows the diff of a single message round-trip",
	Args:  cobra.ExactArgs(1),
	RunE:  RunOne,
}

func init() {
	rootCmd.AddCommand(oneCmd)
}

// RunOne parses the named file, writes it back out, and prints a line diff
// of any difference between the two.
func RunOne(cmd *cobra.Command, args []string) error {
	path := args[0]
	orig, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	msgs, err := parseFile(cmd.Context(), path)
	if err != nil {
		return err
	}

	rt := &bytes.Buffer{}
	for _, m := range msgs {
		_, err = m.Write(cmd.Context(), rt, nil)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "path     = %s\n", path)
	fmt.Fprintf(out, "messages = %d\n", len(msgs))

	if bytes.Equal(orig, rt.Bytes()) {
		fmt.Fprintln(out, "identical")
		return nil
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(orig), rt.String())
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	fmt.Fprintln(out, dmp.DiffPrettyText(diffs))

	return fmt.Errorf("round-trip of %s differs from the original", path)
}
