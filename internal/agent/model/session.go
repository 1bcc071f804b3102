package model

import "time"

// Turn is one history record inside a session context.
type Turn struct {
	Text      string     `json:"text"`
	NLU       *NLUResult `json:"nlu,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ActiveFlow points at the flow a session is currently inside, if any.
// TriggeredBy records the intent that entered the flow so the interrupt
// policy can compare declared priorities.
type ActiveFlow struct {
	Name        string `json:"name"`
	StepID      string `json:"step_id"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

// SessionContext is the per-session conversational state. Exactly one
// instance exists per session id at any time; it is read-modified-written
// once per turn and holds at most one active flow.
type SessionContext struct {
	SessionID string            `json:"session_id"`
	UserID    string            `json:"user_id,omitempty"`
	History   []Turn            `json:"history,omitempty"`
	Slots     map[string]string `json:"slots,omitempty"`
	Active    *ActiveFlow       `json:"active_flow,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// NewSessionContext creates a fresh context with empty history and slots.
func NewSessionContext(sessionID, userID string, expiresAt time.Time) *SessionContext {
	return &SessionContext{
		SessionID: sessionID,
		UserID:    userID,
		History:   []Turn{},
		Slots:     map[string]string{},
		ExpiresAt: expiresAt,
	}
}

// Expired reports whether the context has passed its expiry deadline.
func (s *SessionContext) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Slot returns the value of a named slot.
func (s *SessionContext) Slot(name string) (string, bool) {
	v, ok := s.Slots[name]
	return v, ok
}

// HasSlots reports whether every named slot is populated.
func (s *SessionContext) HasSlots(names []string) bool {
	for _, n := range names {
		if _, ok := s.Slots[n]; !ok {
			return false
		}
	}
	return true
}

// TurnInput is the public input of one pipeline invocation.
type TurnInput struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	Text      string `json:"text"`
}

// TurnResult is the public output of one pipeline invocation. Degraded is
// set when a persistence collaborator failed and the turn was served from
// the in-memory pipeline result alone.
type TurnResult struct {
	NLU      *NLUResult      `json:"nlu"`
	Reply    string          `json:"reply"`
	Session  *SessionContext `json:"session"`
	Degraded bool            `json:"degraded,omitempty"`
}
