package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zostay/go-mimestream/message"
	"github.com/zostay/go-mimestream/message/header"
)

var (
	verbose   bool
	maxDepth  int
	addrMode  string
	mboxInput bool
)

var rootCmd = &cobra.Command{
	Use:   "roundtrip",
	Short: "Tools for testing message round-tripping",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log parser diagnostics to stderr")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", -1, "maximum nesting depth to parse (negative for unlimited)")
	rootCmd.PersistentFlags().StringVar(&addrMode, "address-mode", "loose", "address parser mode (strict, loose, looser)")
	rootCmd.PersistentFlags().BoolVar(&mboxInput, "mbox", false, "treat each input as an mbox file")
}

// Execute runs the roundtrip command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func parseOptions() []message.ParseOption {
	opts := []message.ParseOption{
		message.WithMaxDepth(maxDepth),
	}

	switch addrMode {
	case "strict":
		opts = append(opts, message.WithAddressParserMode(header.AddressStrict))
	case "looser":
		opts = append(opts, message.WithAddressParserMode(header.AddressLooser))
	default:
		opts = append(opts, message.WithAddressParserMode(header.AddressLoose))
	}

	if mboxInput {
		opts = append(opts, message.WithFormat(message.FormatMbox))
	}

	if verbose {
		opts = append(opts, message.WithLogger(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}))))
	}

	return opts
}

// parseFile reads every message found in the named file.
func parseFile(ctx context.Context, path string) ([]*message.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if mboxInput {
		return message.ParseMbox(ctx, f, parseOptions()...)
	}

	m, err := message.ParseContext(ctx, f, parseOptions()...)
	if err != nil {
		return nil, err
	}
	return []*message.Message{m}, nil
}
