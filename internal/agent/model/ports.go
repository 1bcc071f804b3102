package model

import (
	"context"
	"time"
)

// Structured event names emitted through the Notifier.
const (
	EventNLUProcessed      = "nlu_processed"
	EventFlowTransition    = "flow_transition"
	EventFallbackTriggered = "fallback_triggered"
)

// Event is one structured observability record. The Notifier owns no
// formatting or storage logic; it only receives events.
type Event struct {
	Name      string
	SessionID string
	Fields    map[string]any
}

// Notifier receives pipeline events synchronously.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// SessionStore is the session cache collaborator. Get returns (nil, nil)
// when no live context exists for the session id.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*SessionContext, error)
	Set(ctx context.Context, sc *SessionContext, ttl time.Duration) error
	Expire(ctx context.Context, sessionID string) error
}

// MessageRecord is one persisted message, user or agent side.
type MessageRecord struct {
	ID        string
	SessionID string
	UserID    string
	Role      string // "user" or "agent"
	Text      string
	Intent    string
	CreatedAt time.Time
}

// AnalyticsRecord captures per-turn NLU outcomes for reporting.
type AnalyticsRecord struct {
	ID         string
	SessionID  string
	Intent     string
	Confidence float64
	Sentiment  string
	Fallback   bool
	CreatedAt  time.Time
}

// MessageRepository is the persistence collaborator the core writes message
// and analytics records through. Failures are surfaced to the caller as a
// degraded-mode signal, never as a failed turn.
type MessageRepository interface {
	SaveMessage(ctx context.Context, m *MessageRecord) error
	SaveAnalytics(ctx context.Context, a *AnalyticsRecord) error
}

// CorpusProvider supplies intent, entity, and flow definitions at startup.
type CorpusProvider interface {
	Load(ctx context.Context) (*Corpus, error)
}
