package model

import "time"

// AppState is the per-invocation graph local state. It is registered via
// compose.WithGenLocalState and touched only inside state pre/post
// handlers, which the graph serializes, so it needs no locking.
type AppState struct {
	SessionID string
	StartedAt time.Time
}
