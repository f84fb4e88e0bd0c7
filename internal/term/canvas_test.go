package term

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvas_SetTracksDirtyCells(t *testing.T) {
	c := NewCanvas(4, 2)
	assert.Equal(t, 8, c.DirtyCount())

	screen := newScreen(t, 4, 2)
	assert.Equal(t, 8, c.Flush(screen))
	assert.Equal(t, 0, c.DirtyCount())

	c.Set(1, 1, 'x', tcell.StyleDefault)
	c.Set(1, 1, 'x', tcell.StyleDefault)
	c.Set(9, 9, 'y', tcell.StyleDefault)
	assert.Equal(t, 1, c.DirtyCount())
	assert.Equal(t, 'x', c.Get(1, 1).Rune)
	assert.Equal(t, ' ', c.Get(-1, 0).Rune)
}

func TestCanvas_SetStringHandlesWideRunes(t *testing.T) {
	c := NewCanvas(5, 1)
	used := c.SetString(0, 0, "a世b", tcell.StyleDefault)
	assert.Equal(t, 4, used)
	assert.Equal(t, '世', c.Get(1, 0).Rune)
	assert.Equal(t, rune(0), c.Get(2, 0).Rune)
	assert.Equal(t, 'b', c.Get(3, 0).Rune)

	used = c.SetString(3, 0, "世世", tcell.StyleDefault)
	assert.Equal(t, 2, used)
}

func TestCanvas_ResizeKeepsContent(t *testing.T) {
	c := NewCanvas(3, 3)
	c.Set(1, 1, 'k', tcell.StyleDefault)
	c.Resize(2, 2)
	w, h := c.Size()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, 'k', c.Get(1, 1).Rune)
	assert.Equal(t, 4, c.DirtyCount())
}

func TestCanvas_FlushWritesScreen(t *testing.T) {
	screen := newScreen(t, 6, 1)
	c := NewCanvas(6, 1)
	c.SetString(0, 0, "peer", tcell.StyleDefault)
	c.Flush(screen)
	screen.Show()

	cells, w, _ := screen.GetContents()
	require.Equal(t, 6, w)
	got := ""
	for _, cell := range cells[:4] {
		got += string(cell.Runes)
	}
	assert.Equal(t, "peer", got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdefghij", 6))
	assert.Equal(t, "", Truncate("abc", 0))
}

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(w, h)
	t.Cleanup(screen.Fini)
	return screen
}
