package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/odvcencio/furry-live/internal/scenario"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Replay a scenario and print what every peer observed",
		Long: `Replay a scripted multi-peer session against an in-memory hub and a manual
clock. Every change a peer observes is printed as one JSON object per line.

Example:
  roomsim run ./scenarios/lobby.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], cmd)
		},
	}
}

func runScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	logger := opts.Logger()
	s, err := scenario.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	logger.Debug("scenario loaded", slog.String("name", s.Name), slog.Int("steps", len(s.Steps)))

	events, runErr := scenario.Run(s, scenario.WithConfig(opts.Config), scenario.WithLogger(logger))
	if err := scenario.WriteJSONLines(cmd.OutOrStdout(), events); err != nil {
		return WrapExitError(ExitCommandError, "failed to write trace", err)
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, "scenario failed", runErr)
	}
	logger.Debug("scenario finished", slog.String("name", s.Name), slog.Int("events", len(events)))
	return nil
}
