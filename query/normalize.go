package query

import (
	"fmt"
	"sort"

	"github.com/odvcencio/furry-live/reactor"
)

// RuleParamsKey is the reserved top-level key carrying permission rule params.
const RuleParamsKey = "$$ruleParams"

// Normalize coerces q into the shape the query engine requires: a deep copy in
// which every namespace maps to an object, with rule params attached under
// RuleParamsKey. A nil q normalizes to nil.
func Normalize(q reactor.Query, ruleParams map[string]any) (reactor.Query, error) {
	if q == nil {
		return nil, nil
	}
	out := make(reactor.Query, len(q)+1)
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, ns := range keys {
		if ns == "" {
			return nil, &InvalidQueryError{Path: ns, Reason: "empty namespace"}
		}
		if ns == RuleParamsKey {
			out[ns] = deepCopy(q[ns])
			continue
		}
		node, err := normalizeNode(ns, q[ns])
		if err != nil {
			return nil, err
		}
		out[ns] = node
	}
	if len(ruleParams) > 0 {
		out[RuleParamsKey] = deepCopy(map[string]any(ruleParams))
	}
	return out, nil
}

func normalizeNode(path string, v any) (map[string]any, error) {
	switch node := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			if k == "$" {
				out[k] = deepCopy(child)
				continue
			}
			next, err := normalizeNode(path+"."+k, child)
			if err != nil {
				return nil, err
			}
			out[k] = next
		}
		return out, nil
	case reactor.Query:
		return normalizeNode(path, map[string]any(node))
	default:
		return nil, &InvalidQueryError{Path: path, Reason: fmt.Sprintf("expected object, got %T", v)}
	}
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = deepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return val
	}
}

// InvalidQueryError reports a query that cannot be normalized.
type InvalidQueryError struct {
	Path   string
	Reason string
}

// Error implements the error interface.
func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query at %q: %s", e.Path, e.Reason)
}
