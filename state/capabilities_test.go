package state

import (
	"testing"

	"github.com/odvcencio/furry-live/reactive"
)

func TestCapabilities_SatisfyContract(t *testing.T) {
	rt := NewRuntime()
	scope := NewScope()
	caps := rt.Capabilities(scope)
	if err := caps.Validate(); err != nil {
		t.Fatalf("expected complete capability set, got %v", err)
	}

	count := reactive.NewCell(caps, 1)
	double := reactive.NewDerived(caps, func() int { return count.Get() * 2 })
	var seen []int
	var cleanups int

	caps.RunEffect(func() reactive.Disposer {
		seen = append(seen, double.Get())
		return func() { cleanups++ }
	})

	count.Set(2)
	count.Set(2)
	if len(seen) != 2 || seen[1] != 4 {
		t.Fatalf("expected one rerun with 4, got %v", seen)
	}

	scope.Dispose()
	count.Set(3)
	if len(seen) != 2 {
		t.Fatalf("expected no reruns after scope dispose, got %v", seen)
	}
	if cleanups != 2 {
		t.Fatalf("expected cleanup before rerun and on dispose, got %d", cleanups)
	}
	if got := double.Peek(); got != 4 {
		t.Fatalf("expected derived to freeze after dispose, got %d", got)
	}
}

func TestEqualAny(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{nil, nil, true},
		{"x", "x", true},
		{"x", "y", false},
		{1, int64(1), false},
		{map[string]int{}, map[string]int{}, false},
		{[]int{1}, []int{1}, false},
		{nil, "x", false},
	}
	for _, tc := range cases {
		if got := equalAny(tc.a, tc.b); got != tc.want {
			t.Fatalf("equalAny(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
