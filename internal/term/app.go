package term

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/odvcencio/furry-live/state"
)

// UpdateFunc handles a message and reports whether a redraw is needed.
type UpdateFunc func(app *App, msg Message) bool

// RenderFunc draws the current frame.
type RenderFunc func(c *Canvas)

// Config configures an App.
type Config struct {
	Screen        tcell.Screen
	Update        UpdateFunc
	Render        RenderFunc
	TickRate      time.Duration
	MessageBuffer int
	// Queue receives state callbacks posted from other goroutines. It is
	// drained on the loop goroutine.
	Queue *state.Queue
}

// App runs an update/render loop against a tcell screen.
type App struct {
	screen    tcell.Screen
	canvas    *Canvas
	update    UpdateFunc
	render    RenderFunc
	tickRate  time.Duration
	messages  chan Message
	queue     *state.Queue
	scheduler *QueueScheduler
	running   bool
	done      chan struct{}
}

// NewApp creates an App from cfg.
func NewApp(cfg Config) *App {
	size := cfg.MessageBuffer
	if size <= 0 {
		size = 128
	}
	queue := cfg.Queue
	if queue == nil {
		queue = state.NewQueue()
	}
	a := &App{
		screen:   cfg.Screen,
		update:   cfg.Update,
		render:   cfg.Render,
		tickRate: cfg.TickRate,
		messages: make(chan Message, size),
		queue:    queue,
		done:     make(chan struct{}),
	}
	a.scheduler = NewQueueScheduler(queue, a.TryPost)
	return a
}

// Scheduler returns a scheduler whose callbacks run on the loop goroutine.
func (a *App) Scheduler() *QueueScheduler {
	return a.scheduler
}

// Canvas returns the frame canvas. It is nil before Run.
func (a *App) Canvas() *Canvas {
	return a.canvas
}

// TryPost queues msg without blocking and reports whether it was accepted.
func (a *App) TryPost(msg Message) bool {
	select {
	case a.messages <- msg:
		return true
	default:
		return false
	}
}

// Quit stops the loop after the current message.
func (a *App) Quit() {
	a.running = false
}

// Run initialises the screen and processes messages until ctx is done or the
// loop is asked to quit.
func (a *App) Run(ctx context.Context) error {
	if a.screen == nil {
		return errors.New("term: screen is required")
	}
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer a.screen.Fini()
	defer close(a.done)
	a.screen.HideCursor()
	a.screen.EnableMouse()
	a.screen.EnableFocus()

	w, h := a.screen.Size()
	a.canvas = NewCanvas(w, h)
	if a.update == nil {
		a.update = func(*App, Message) bool { return false }
	}

	go a.pollEvents()

	var ticks <-chan time.Time
	if a.tickRate > 0 {
		ticker := time.NewTicker(a.tickRate)
		defer ticker.Stop()
		ticks = ticker.C
	}

	a.running = true
	dirty := true
	for a.running {
		var msg Message
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg = <-a.messages:
		case now := <-ticks:
			msg = TickMsg{Time: now}
		}
		dirty = a.handle(msg) || dirty
		if a.running && dirty {
			a.draw()
			dirty = false
		}
	}
	return nil
}

func (a *App) handle(msg Message) bool {
	switch m := msg.(type) {
	case QuitMsg:
		a.running = false
		return false
	case ResizeMsg:
		a.canvas.Resize(m.Width, m.Height)
		a.screen.Sync()
	case QueueFlushMsg:
		a.scheduler.resetPending()
		a.queue.Drain()
		a.update(a, msg)
		return true
	}
	redraw := a.update(a, msg)
	// updates may post state callbacks of their own
	if a.queue.Drain() > 0 {
		redraw = true
	}
	return redraw
}

func (a *App) draw() {
	if a.render != nil {
		a.render(a.canvas)
	}
	if a.canvas.Flush(a.screen) > 0 {
		a.screen.Show()
	}
}

func (a *App) pollEvents() {
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return
		}
		msg := Translate(ev)
		if msg == nil {
			continue
		}
		select {
		case a.messages <- msg:
		case <-a.done:
			return
		}
	}
}

// Translate converts a tcell event into a Message, or nil when it has no
// meaning for the loop.
func Translate(ev tcell.Event) Message {
	switch e := ev.(type) {
	case *tcell.EventKey:
		switch e.Key() {
		case tcell.KeyRune:
			return KeyMsg{Key: KeyRune, Rune: e.Rune()}
		case tcell.KeyEscape:
			return KeyMsg{Key: KeyEscape}
		case tcell.KeyEnter:
			return KeyMsg{Key: KeyEnter}
		case tcell.KeyCtrlC:
			return KeyMsg{Key: KeyCtrlC}
		default:
			return KeyMsg{Key: KeyOther}
		}
	case *tcell.EventMouse:
		x, y := e.Position()
		return MouseMsg{X: x, Y: y, Pressed: e.Buttons()&tcell.Button1 != 0}
	case *tcell.EventFocus:
		if !e.Focused {
			return LeaveMsg{}
		}
	case *tcell.EventResize:
		w, h := e.Size()
		return ResizeMsg{Width: w, Height: h}
	}
	return nil
}

// QueueScheduler enqueues callbacks and wakes the loop to drain them.
type QueueScheduler struct {
	queue   *state.Queue
	post    func(Message) bool
	pending atomic.Bool
}

// NewQueueScheduler wires queue to post.
func NewQueueScheduler(queue *state.Queue, post func(Message) bool) *QueueScheduler {
	if queue == nil {
		queue = state.NewQueue()
	}
	return &QueueScheduler{queue: queue, post: post}
}

// Schedule enqueues fn and posts a QueueFlushMsg unless one is pending.
func (s *QueueScheduler) Schedule(fn func()) {
	if s == nil || fn == nil {
		return
	}
	s.queue.Schedule(fn)
	if s.post == nil {
		return
	}
	if s.pending.CompareAndSwap(false, true) {
		if !s.post(QueueFlushMsg{}) {
			s.pending.Store(false)
		}
	}
}

func (s *QueueScheduler) resetPending() {
	s.pending.Store(false)
}
