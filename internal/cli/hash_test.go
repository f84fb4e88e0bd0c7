package cli

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/furry-live/config"
)

func TestHashIgnoresKeyOrder(t *testing.T) {
	a, _, err := execute(t, config.Default(), "--format", "json", "hash", `{"todos":{},"goals":{"$":{"where":{"done":false,"id":"1"}}}}`)
	require.NoError(t, err)
	b, _, err := execute(t, config.Default(), "--format", "json", "hash", `{"goals":{"$":{"where":{"id":"1","done":false}}},"todos":{}}`)
	require.NoError(t, err)

	var ra, rb hashResult
	require.NoError(t, json.Unmarshal([]byte(a), &ra))
	require.NoError(t, json.Unmarshal([]byte(b), &rb))
	assert.Equal(t, ra.Hash, rb.Hash)
	assert.JSONEq(t, string(ra.Query), string(rb.Query))
	assert.Len(t, ra.Hash, 64)
}

func TestHashRuleParamsChangeTheHash(t *testing.T) {
	plain, _, err := execute(t, config.Default(), "--format", "json", "hash", `{"todos":{}}`)
	require.NoError(t, err)
	withParams, _, err := execute(t, config.Default(), "--format", "json", "hash", "--rule-params", `{"team":"a"}`, `{"todos":{}}`)
	require.NoError(t, err)
	assert.NotEqual(t, plain, withParams)
	assert.Contains(t, withParams, "$$ruleParams")
}

func TestHashReadsStdinAsText(t *testing.T) {
	cmd := NewRootCommand(config.Default())
	var out strings.Builder
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(`{"todos": {}}`))
	cmd.SetArgs([]string{"hash", "-"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), `query: {"todos":{}}`)
	assert.Contains(t, out.String(), "hash:  ")
}

func TestHashRejectsBadInput(t *testing.T) {
	for _, input := range []string{`[1,2]`, `null`, `{"todos": 3}`, `not json`} {
		_, _, err := execute(t, config.Default(), "hash", input)
		require.Error(t, err, input)
		assert.Equal(t, ExitCommandError, GetExitCode(err), input)
	}

	_, _, err := execute(t, config.Default(), "hash", "--rule-params", "[", `{"todos":{}}`)
	assert.ErrorContains(t, err, "rule params")
}

func TestHashHighlightsQueryWhenAsked(t *testing.T) {
	out, _, err := execute(t, config.Default(), "hash", "--color", "always", `{"todos":{}}`)
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, stripANSI(out), `query: {"todos":{}}`)

	plain, _, err := execute(t, config.Default(), "hash", `{"todos":{}}`)
	require.NoError(t, err)
	assert.NotContains(t, plain, "\x1b[", "buffers are not terminals")
	assert.Equal(t, plain, stripANSI(out))

	jsonOut, _, err := execute(t, config.Default(), "--format", "json", "hash", "--color", "always", `{"todos":{}}`)
	require.NoError(t, err)
	assert.NotContains(t, jsonOut, "\x1b[")
}

func TestHashRejectsUnknownColorMode(t *testing.T) {
	_, _, err := execute(t, config.Default(), "hash", "--color", "rainbow", `{"todos":{}}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHighlightJSONFallsBackForUnknownStyle(t *testing.T) {
	got, err := highlightJSON(`{"a":[1,true,null]}`, "no-such-style")
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1,true,null]}`, stripANSI(got))
}

var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}
