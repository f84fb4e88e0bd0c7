package scenario

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_LobbyTrace(t *testing.T) {
	s, err := Load("testdata/lobby.yaml")
	require.NoError(t, err)

	events, err := Run(s)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSONLines(&buf, events))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "lobby", buf.Bytes())
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("name: x\npeers: [a]\nstep: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse scenario")
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"missing name":    "peers: [a]\n",
		"no peers":        "name: x\n",
		"duplicate peer":  "name: x\npeers: [a, a]\n",
		"unknown action":  "name: x\npeers: [a]\nsteps:\n  - {peer: a, do: dance}\n",
		"unknown peer":    "name: x\npeers: [a]\nsteps:\n  - {peer: b, do: typing}\n",
		"hub action peer": "name: x\npeers: [a]\nsteps:\n  - {peer: a, do: advance}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestRun_StepErrorsCarryTheStep(t *testing.T) {
	s, err := Parse(strings.NewReader(`
name: bad
peers: [a]
steps:
  - {peer: a, do: stop}
  - {peer: a, do: typing, args: {active: true}}
`))
	require.NoError(t, err)

	events, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2 (typing)")
	assert.Equal(t, KindStopped, events[len(events)-1].Kind)
}

func TestRun_BadArguments(t *testing.T) {
	s, err := Parse(strings.NewReader(`
name: bad
peers: [a]
steps:
  - {peer: a, do: cursor_move, args: {x: left, y: 1}}
`))
	require.NoError(t, err)

	_, err = Run(s)
	assert.ErrorContains(t, err, `argument "x" must be a number`)
}

func TestRun_QueryClearedByNull(t *testing.T) {
	s, err := Parse(strings.NewReader(`
name: null-query
peers: [a]
steps:
  - do: set_query_result
    args: {query: {goals: {}}, data: {goals: []}}
  - {peer: a, do: set_query, args: {query: {goals: {}}}}
  - {peer: a, do: set_query, args: {query: null}}
`))
	require.NoError(t, err)

	events, err := Run(s)
	require.NoError(t, err)

	var last queryState
	for _, e := range events {
		if e.Kind == KindQuery {
			require.NoError(t, json.Unmarshal(e.Value, &last))
		}
	}
	assert.False(t, last.Loading)
	assert.Contains(t, last.Data, "goals")
}
