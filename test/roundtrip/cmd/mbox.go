package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zostay/go-mimestream/message"
)

var mboxCmd = &cobra.Command{
	Use:   "mbox file",
	Short: "Splits an mbox file and checks that it round-trips",
	Args:  cobra.ExactArgs(1),
	RunE:  RunMbox,
}

func init() {
	rootCmd.AddCommand(mboxCmd)
}

// RunMbox lists each message of an mbox file and reports whether writing
// every message back out reproduces the file.
func RunMbox(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	msgs, err := message.ParseMbox(cmd.Context(), f, parseOptions()...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rt := &bytes.Buffer{}
	for i, m := range msgs {
		subject, _ := m.Header().GetSubject()
		fmt.Fprintf(out, "%d offset=%d violations=%d %s\n  subject: %s\n",
			i, m.MarkerOffset(), len(m.Violations()),
			strings.TrimRight(string(m.Marker), "\r\n"), subject)

		_, err := m.Write(cmd.Context(), rt, nil)
		if err != nil {
			return err
		}
	}

	orig, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if !bytes.Equal(orig, rt.Bytes()) {
		return fmt.Errorf("round-trip of %s differs from the original", path)
	}

	fmt.Fprintf(out, "%d messages, identical\n", len(msgs))
	return nil
}
