package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/furry-live/query"
	"github.com/odvcencio/furry-live/reactor"
)

// HashOptions holds flags for the hash command.
type HashOptions struct {
	*RootOptions
	RuleParams string
	Color      string
	Style      string
}

type hashResult struct {
	Query json.RawMessage `json:"query"`
	Hash  string          `json:"hash"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HashOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hash [query-json|-]",
		Short: "Print a query's normalized form and structural hash",
		Long: `Normalize a query the way the query binding does and print its canonical
JSON and structural hash. Equal hashes share one subscription. Reads stdin
when the argument is "-" or missing.

Example:
  roomsim hash '{"todos": {"$": {"where": {"done": false}}}}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RuleParams, "rule-params", "", "rule params as a JSON object")
	cmd.Flags().StringVar(&opts.Color, "color", ColorAuto, "highlight the query in text output (auto, always, never)")
	cmd.Flags().StringVar(&opts.Style, "style", DefaultStyle, "chroma style used when highlighting")

	return cmd
}

func runHash(opts *HashOptions, args []string, cmd *cobra.Command) error {
	if err := validateColorMode(opts.Color); err != nil {
		return err
	}
	var src string
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read query", err)
		}
		src = string(data)
	} else {
		src = args[0]
	}

	var q reactor.Query
	if err := json.Unmarshal([]byte(strings.TrimSpace(src)), &q); err != nil {
		return WrapExitError(ExitCommandError, "query must be a JSON object", err)
	}
	if q == nil {
		return NewExitError(ExitCommandError, "query must be a JSON object")
	}
	var params map[string]any
	if opts.RuleParams != "" {
		if err := json.Unmarshal([]byte(opts.RuleParams), &params); err != nil {
			return WrapExitError(ExitCommandError, "rule params must be a JSON object", err)
		}
	}

	normalized, err := query.Normalize(q, params)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid query", err)
	}
	canonical, err := query.Canonical(normalized)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid query", err)
	}
	res := hashResult{Query: canonical, Hash: query.Hash(normalized)}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return json.NewEncoder(out).Encode(res)
	}
	shown := string(res.Query)
	if useColor(opts.Color, out) {
		if shown, err = highlightJSON(shown, opts.Style); err != nil {
			return WrapExitError(ExitFailure, "failed to highlight query", err)
		}
	}
	fmt.Fprintf(out, "query: %s\nhash:  %s\n", shown, res.Hash)
	return nil
}
