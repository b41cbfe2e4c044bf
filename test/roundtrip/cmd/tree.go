package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zostay/go-mimestream/message"
	"github.com/zostay/go-mimestream/message/walker"
)

var treeCmd = &cobra.Command{
	Use:   "tree message",
	Short: "Prints the entity tree of a message with offsets",
	Args:  cobra.ExactArgs(1),
	RunE:  RunTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

// RunTree shows one line per entity giving its media type and where it was
// found in the input.
func RunTree(cmd *cobra.Command, args []string) error {
	msgs, err := parseFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range msgs {
		if m.Marker != nil {
			fmt.Fprint(out, string(m.Marker))
		}

		show := walker.Parts(func(depth, i int, e message.Entity) error {
			mt, _ := e.GetHeader().GetMediaType()
			if mt == "" {
				mt = "text/plain"
			}

			o := e.Offsets()
			fmt.Fprintf(out, "%s%d %s begin=%d (line %d) content=%d-%d lines=%d\n",
				strings.Repeat("  ", depth), i, mt,
				o.Begin, o.BeginLine, o.HeadersEnd, o.End, o.Lines)
			return nil
		})

		err := show.WalkMessage(m)
		if err != nil {
			return err
		}
	}

	return nil
}
