// Package reactor describes the real-time backend the bindings consume: the
// query engine, the presence and topic channels, auth, connection status,
// local ids and the transactional write API.
//
// Implementations are shared by every binding of a client and must be safe
// for concurrent use. Callbacks may be invoked on any goroutine; bindings
// marshal them onto the host's reactive goroutine themselves.
package reactor
