package cursors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/odvcencio/furry-live/reactor"
)

var (
	absoluteStyles = []string{
		"position: absolute",
		"top: 0",
		"left: 0",
		"bottom: 0",
		"right: 0",
	}
	inertStyles = []string{
		"overflow: hidden",
		"pointer-events: none",
		"user-select: none",
	}
)

func styleString(decls []string, important bool) string {
	if !important {
		return strings.Join(decls, "; ")
	}
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d + " !important"
	}
	return strings.Join(out, "; ")
}

// GlobalWrapperStyles styles the element that contains the cursor layer.
func GlobalWrapperStyles(important bool) string {
	return styleString([]string{"position: relative"}, important)
}

// WrapperStyles styles the inert layer cursors are drawn on.
func WrapperStyles(zIndex *int, important bool) string {
	z := DefaultZIndex
	if zIndex != nil {
		z = *zIndex
	}
	decls := make([]string, 0, len(absoluteStyles)+len(inertStyles)+1)
	decls = append(decls, absoluteStyles...)
	decls = append(decls, inertStyles...)
	decls = append(decls, "z-index: "+strconv.Itoa(z))
	return styleString(decls, important)
}

// CursorStyles places c on the cursor layer.
func CursorStyles(c Cursor, important bool) string {
	decls := make([]string, 0, len(absoluteStyles)+3)
	decls = append(decls, absoluteStyles...)
	decls = append(decls,
		fmt.Sprintf("transform: translate(%s%%, %s%%)", formatPercent(c.XPercent), formatPercent(c.YPercent)),
		"transform-origin: 0 0",
		"transition: transform 100ms",
	)
	return styleString(decls, important)
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GlobalWrapperStyles styles the element that contains the cursor layer.
func (h *Handle) GlobalWrapperStyles(important bool) string {
	return GlobalWrapperStyles(important)
}

// WrapperStyles styles the cursor layer with the configured z-index.
func (h *Handle) WrapperStyles(important bool) string {
	return WrapperStyles(h.opts.Peek().ZIndex, important)
}

// CursorStyles places peer's cursor. A peer without a cursor in the space is
// placed at the origin.
func (h *Handle) CursorStyles(peer reactor.Presence, important bool) string {
	c, _ := h.Cursor(peer)
	return CursorStyles(c, important)
}
