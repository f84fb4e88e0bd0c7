package term

import "time"

// Message is an event handled by the loop.
type Message interface {
	isMessage()
}

// KeyMsg is a key press.
type KeyMsg struct {
	Key  Key
	Rune rune
}

// Key identifies a non-rune key.
type Key int

const (
	KeyRune Key = iota
	KeyEscape
	KeyEnter
	KeyCtrlC
	KeyOther
)

// MouseMsg is a mouse motion or button change.
type MouseMsg struct {
	X, Y    int
	Pressed bool
}

// LeaveMsg reports that the pointer left the screen.
type LeaveMsg struct{}

// ResizeMsg reports a new screen size.
type ResizeMsg struct {
	Width, Height int
}

// TickMsg is sent at the configured tick rate.
type TickMsg struct {
	Time time.Time
}

// QueueFlushMsg asks the loop to drain its state queue.
type QueueFlushMsg struct{}

// QuitMsg stops the loop.
type QuitMsg struct{}

func (KeyMsg) isMessage()        {}
func (MouseMsg) isMessage()      {}
func (LeaveMsg) isMessage()      {}
func (ResizeMsg) isMessage()     {}
func (TickMsg) isMessage()       {}
func (QueueFlushMsg) isMessage() {}
func (QuitMsg) isMessage()       {}
