package cursors

import (
	"sort"

	"github.com/odvcencio/furry-live/reactor"
)

// Cursor is one peer's position in a space.
type Cursor struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	XPercent float64 `json:"xPercent"`
	YPercent float64 `json:"yPercent"`
	Color    string  `json:"color,omitempty"`
}

// Map returns c in the form it is published in.
func (c Cursor) Map() map[string]any {
	m := map[string]any{
		"x":        c.X,
		"y":        c.Y,
		"xPercent": c.XPercent,
		"yPercent": c.YPercent,
	}
	if c.Color != "" {
		m["color"] = c.Color
	}
	return m
}

// Decode reads a cursor stored as a Cursor or as a published map.
func Decode(v any) (Cursor, bool) {
	switch val := v.(type) {
	case Cursor:
		return val, true
	case *Cursor:
		if val == nil {
			return Cursor{}, false
		}
		return *val, true
	case map[string]any:
		c := Cursor{}
		var ok bool
		if c.XPercent, ok = number(val["xPercent"]); !ok {
			return Cursor{}, false
		}
		if c.YPercent, ok = number(val["yPercent"]); !ok {
			return Cursor{}, false
		}
		c.X, _ = number(val["x"])
		c.Y, _ = number(val["y"])
		c.Color, _ = val["color"].(string)
		return c, true
	default:
		return Cursor{}, false
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Cursor decodes the space entry of a peer record.
func (h *Handle) Cursor(peer reactor.Presence) (Cursor, bool) {
	return Decode(peer[h.SpaceID.Peek()])
}

// PeerCursor pairs a peer id with its cursor.
type PeerCursor struct {
	PeerID string
	Cursor Cursor
}

// Cursors lists the peers that currently have a cursor in the space, ordered
// by peer id. It reads the scoped presence in a tracked context.
func (h *Handle) Cursors() []PeerCursor {
	peers := h.Presence.Peers.Get()
	out := make([]PeerCursor, 0, len(peers))
	for id, p := range peers {
		if c, ok := h.Cursor(p); ok {
			out = append(out, PeerCursor{PeerID: id, Cursor: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeerID < out[j].PeerID })
	return out
}
