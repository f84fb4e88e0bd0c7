// Package memory implements reactor.Reactor in process. A Hub holds the shared
// room and query state; each Client is one simulated peer attached to it.
// Query results come from fixtures set with Hub.SetResult.
package memory
