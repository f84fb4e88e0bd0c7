// Package scenario replays scripted multi-peer sessions against an in-memory
// hub and records what every peer observes.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted session.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Room is where every peer starts.
	Room RoomRef `yaml:"room"`

	// Peers are created in order; their names double as peer ids.
	Peers []string `yaml:"peers"`

	// Topics every peer listens on.
	Topics []string `yaml:"topics,omitempty"`

	// TypingInput names the input the typing indicators watch.
	TypingInput string `yaml:"typing_input,omitempty"`

	Steps []Step `yaml:"steps"`
}

// RoomRef identifies a room.
type RoomRef struct {
	Type string `yaml:"type"`
	ID   string `yaml:"id"`
}

// Step is one action taken by one peer, or by the hub when Peer is empty.
type Step struct {
	Peer string         `yaml:"peer,omitempty"`
	Do   string         `yaml:"do"`
	Args map[string]any `yaml:"args,omitempty"`
}

// Actions.
const (
	ActPublishPresence = "publish_presence"
	ActSetQueryResult  = "set_query_result"
	ActSetQuery        = "set_query"
	ActPublishTopic    = "publish_topic"
	ActAdvance         = "advance"
	ActTyping          = "typing"
	ActCursorMove      = "cursor_move"
	ActCursorLeave     = "cursor_leave"
	ActSwitchRoom      = "switch_room"
	ActStop            = "stop"
)

var hubActions = map[string]bool{
	ActSetQueryResult: true,
	ActAdvance:        true,
}

var peerActions = map[string]bool{
	ActPublishPresence: true,
	ActSetQuery:        true,
	ActPublishTopic:    true,
	ActTyping:          true,
	ActCursorMove:      true,
	ActCursorLeave:     true,
	ActSwitchRoom:      true,
	ActStop:            true,
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid scenario")

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes and validates a scenario. Unknown fields are rejected.
func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every step names a known action and a known peer.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if len(s.Peers) == 0 {
		return fmt.Errorf("%w: at least one peer is required", ErrInvalid)
	}
	known := make(map[string]bool, len(s.Peers))
	for _, p := range s.Peers {
		if p == "" || known[p] {
			return fmt.Errorf("%w: peer names must be unique and non-empty", ErrInvalid)
		}
		known[p] = true
	}
	for i, step := range s.Steps {
		switch {
		case hubActions[step.Do]:
			if step.Peer != "" {
				return fmt.Errorf("%w: step %d: %s is a hub action", ErrInvalid, i+1, step.Do)
			}
		case peerActions[step.Do]:
			if !known[step.Peer] {
				return fmt.Errorf("%w: step %d: unknown peer %q", ErrInvalid, i+1, step.Peer)
			}
		default:
			return fmt.Errorf("%w: step %d: unknown action %q", ErrInvalid, i+1, step.Do)
		}
	}
	return nil
}
