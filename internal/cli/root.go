// Package cli implements the roomsim command line.
package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/odvcencio/furry-live/config"
	"github.com/odvcencio/furry-live/logging"
)

// RootOptions holds settings shared by every command.
type RootOptions struct {
	Config  config.Config
	Verbose bool
	Format  string // "json" | "text"

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Logger returns the logger built for the running command.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return logging.Discard()
	}
	return o.logger
}

// NewRootCommand creates the roomsim root command.
func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &RootOptions{Config: cfg}

	cmd := &cobra.Command{
		Use:   "roomsim",
		Short: "Simulate realtime rooms against an in-memory hub",
		Long: `roomsim drives the query, presence, typing and cursor bindings against an
in-memory hub. Scenarios replay scripted sessions; the cursors command
shares a live cursor space with simulated peers in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			logger, err := newLogger(opts, cmd)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid logging configuration", err)
			}
			opts.logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewCursorsCommand(opts))

	return cmd
}

func newLogger(opts *RootOptions, cmd *cobra.Command) (*slog.Logger, error) {
	level, err := logging.ParseLevel(opts.Config.LogLevel)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	format := logging.Format(opts.Config.LogFormat)
	if format != logging.FormatJSON && format != logging.FormatText {
		return nil, fmt.Errorf("invalid log format %q", opts.Config.LogFormat)
	}
	return logging.New(
		logging.WithLevel(level),
		logging.WithFormat(format),
		logging.WithOutput(cmd.ErrOrStderr()),
	), nil
}
