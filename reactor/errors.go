package reactor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotJoined is returned when publishing to a room before joining it.
	ErrNotJoined = errors.New("reactor: room not joined")
	// ErrRoomClosed is returned when the room has been torn down.
	ErrRoomClosed = errors.New("reactor: room closed")
	// ErrOffline is returned by one-off operations without a connection.
	ErrOffline = errors.New("reactor: offline")
	// ErrNotSignedIn is returned when an operation requires a signed-in user.
	ErrNotSignedIn = errors.New("reactor: not signed in")
)

// QueryError is an error reported by the query engine for a query.
type QueryError struct {
	Code    string
	Message string
	Hint    map[string]any
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("query error: %s", e.Message)
	}
	return fmt.Sprintf("query error %s: %s", e.Code, e.Message)
}

// IsQueryError reports whether err wraps a *QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}
