package term

import (
	"context"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/furry-live/state"
)

func TestTranslate(t *testing.T) {
	assert.Equal(t, KeyMsg{Key: KeyRune, Rune: 'q'}, Translate(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.Equal(t, KeyMsg{Key: KeyCtrlC}, Translate(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)))
	assert.Equal(t, MouseMsg{X: 3, Y: 4, Pressed: true}, Translate(tcell.NewEventMouse(3, 4, tcell.Button1, tcell.ModNone)))
	assert.Equal(t, ResizeMsg{Width: 80, Height: 24}, Translate(tcell.NewEventResize(80, 24)))
	assert.Nil(t, Translate(tcell.NewEventInterrupt(nil)))
}

func TestQueueScheduler_PostsOneFlush(t *testing.T) {
	queue := state.NewQueue()
	var posted []Message
	s := NewQueueScheduler(queue, func(m Message) bool {
		posted = append(posted, m)
		return true
	})
	s.Schedule(func() {})
	s.Schedule(func() {})
	assert.Len(t, posted, 1)
	assert.Equal(t, 2, queue.Len())

	s.resetPending()
	s.Schedule(func() {})
	assert.Len(t, posted, 2)
}

func TestApp_RunDrainsQueueAndQuits(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	var (
		ran      bool
		rendered int
		seen     []Message
	)
	app := NewApp(Config{
		Screen: screen,
		Update: func(a *App, msg Message) bool {
			seen = append(seen, msg)
			if k, ok := msg.(KeyMsg); ok && k.Rune == 'q' {
				a.Quit()
			}
			return true
		},
		Render: func(c *Canvas) {
			rendered++
			c.SetString(0, 0, "hi", tcell.StyleDefault)
		},
	})
	app.Scheduler().Schedule(func() { ran = true })
	require.True(t, app.TryPost(KeyMsg{Key: KeyRune, Rune: 'q'}))

	require.NoError(t, app.Run(context.Background()))
	assert.True(t, ran)
	assert.GreaterOrEqual(t, rendered, 1)
	assert.IsType(t, QueueFlushMsg{}, seen[0])
	assert.Equal(t, KeyMsg{Key: KeyRune, Rune: 'q'}, seen[len(seen)-1])
}

func TestApp_RunRequiresScreen(t *testing.T) {
	err := NewApp(Config{}).Run(context.Background())
	assert.Error(t, err)
}
