package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/furry-live/config"
)

const helloScenario = `
name: hello
room: {type: demo, id: lobby}
peers: [ana, ben]
steps:
  - peer: ana
    do: publish_presence
    args: {status: online}
  - peer: ben
    do: typing
    args: {active: true}
  - peer: ben
    do: typing
    args: {active: false}
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunPrintsTrace(t *testing.T) {
	out, _, err := execute(t, config.Default(), "run", writeScenario(t, helloScenario))
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "run_hello", []byte(out))
}

func TestRunMissingFile(t *testing.T) {
	_, _, err := execute(t, config.Default(), "run", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load scenario")
}

func TestRunFailingStepKeepsPartialTrace(t *testing.T) {
	path := writeScenario(t, `
name: broken
room: {type: demo, id: lobby}
peers: [ana]
steps:
  - {peer: ana, do: stop}
  - {peer: ana, do: publish_presence, args: {status: away}}
`)
	out, _, err := execute(t, config.Default(), "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `"kind":"stopped"`)
}

func TestRunRequiresOneArgument(t *testing.T) {
	_, _, err := execute(t, config.Default(), "run")
	require.Error(t, err)
}
