// Package term draws the terminal demos: a dirty-tracked cell canvas and a
// message loop over a tcell screen.
package term

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Cell is one terminal cell.
type Cell struct {
	Rune  rune
	Style tcell.Style
}

// Canvas is a grid of cells. Writes mark changed cells dirty; Flush copies
// only those to the screen.
type Canvas struct {
	cells  []Cell
	dirty  []bool
	width  int
	height int
	count  int
}

// NewCanvas creates a blank canvas.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{}
	c.Resize(w, h)
	return c
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (w, h int) {
	return c.width, c.height
}

// Resize changes the dimensions and marks everything dirty.
func (c *Canvas) Resize(w, h int) {
	w, h = max(w, 0), max(h, 0)
	cells := make([]Cell, w*h)
	for i := range cells {
		cells[i] = Cell{Rune: ' ', Style: tcell.StyleDefault}
	}
	for y := 0; y < min(h, c.height); y++ {
		copy(cells[y*w:y*w+min(w, c.width)], c.cells[y*c.width:])
	}
	c.cells = cells
	c.width, c.height = w, h
	c.dirty = make([]bool, w*h)
	c.MarkAllDirty()
}

// Get returns the cell at (x, y), or a blank cell out of bounds.
func (c *Canvas) Get(x, y int) Cell {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return Cell{Rune: ' '}
	}
	return c.cells[y*c.width+x]
}

// Set writes r at (x, y). Out of bounds writes are dropped.
func (c *Canvas) Set(x, y int, r rune, s tcell.Style) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	idx := y*c.width + x
	if c.cells[idx].Rune == r && c.cells[idx].Style == s {
		return
	}
	c.cells[idx] = Cell{Rune: r, Style: s}
	if !c.dirty[idx] {
		c.dirty[idx] = true
		c.count++
	}
}

// SetString writes s from (x, y) and returns the columns used. Wide runes
// take two columns; the second holds a zero rune.
func (c *Canvas) SetString(x, y int, s string, style tcell.Style) int {
	px := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if px+w > c.width {
			break
		}
		c.Set(px, y, r, style)
		if w == 2 {
			c.Set(px+1, y, 0, style)
		}
		px += w
	}
	return px - x
}

// Fill sets every cell of the rectangle to ch.
func (c *Canvas) Fill(x, y, w, h int, ch rune, s tcell.Style) {
	for row := max(y, 0); row < min(y+h, c.height); row++ {
		for col := max(x, 0); col < min(x+w, c.width); col++ {
			c.Set(col, row, ch, s)
		}
	}
}

// Clear blanks the canvas.
func (c *Canvas) Clear() {
	c.Fill(0, 0, c.width, c.height, ' ', tcell.StyleDefault)
}

// MarkAllDirty forces the next Flush to copy every cell.
func (c *Canvas) MarkAllDirty() {
	for i := range c.dirty {
		c.dirty[i] = true
	}
	c.count = len(c.dirty)
}

// DirtyCount returns the number of cells waiting to be flushed.
func (c *Canvas) DirtyCount() int {
	return c.count
}

// Flush copies dirty cells to screen and returns how many were copied. It
// does not call Show.
func (c *Canvas) Flush(screen tcell.Screen) int {
	if c.count == 0 {
		return 0
	}
	n := 0
	for idx, d := range c.dirty {
		if !d {
			continue
		}
		cell := c.cells[idx]
		if cell.Rune != 0 {
			screen.SetContent(idx%c.width, idx/c.width, cell.Rune, nil, cell.Style)
		}
		c.dirty[idx] = false
		n++
	}
	c.count = 0
	return n
}

// Truncate shortens s to maxWidth columns, ending with "..." when cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}
