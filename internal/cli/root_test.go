package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/furry-live/config"
)

func execute(t *testing.T, cfg config.Config, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(cfg)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand(config.Default())
	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"run", "hash", "cursors"})
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, _, err := execute(t, config.Default(), "--format", "yaml", "hash", `{"a":{}}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootRejectsInvalidLogConfig(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	_, _, err := execute(t, cfg, "hash", `{"a":{}}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	cfg = config.Default()
	cfg.LogFormat = "xml"
	_, _, err = execute(t, cfg, "hash", `{"a":{}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestRootOptionsLoggerDefaultsToDiscard(t *testing.T) {
	opts := &RootOptions{}
	require.NotNil(t, opts.Logger())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad", assert.AnError)))
	assert.ErrorIs(t, WrapExitError(ExitFailure, "x", assert.AnError), assert.AnError)
}
