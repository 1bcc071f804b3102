// Package dialog owns per-session conversational state: the context
// manager that merges NLU results into session state, the flow engine that
// drives multi-step guided interactions, and the response selector.
package dialog

import (
	"time"

	"github.com/dialogcore/server/internal/agent/model"
	errx "github.com/dialogcore/server/internal/core/error"
	logx "github.com/dialogcore/server/pkg/logger"
)

// ContextManager applies one turn's understanding to a session context:
// bounded FIFO history, last-write-wins slots, and sliding expiry.
type ContextManager struct {
	maxHistory int
	ttl        time.Duration
	now        func() time.Time
}

func NewContextManager(maxHistory int, ttl time.Duration) *ContextManager {
	if maxHistory <= 0 {
		maxHistory = 1
	}
	return &ContextManager{maxHistory: maxHistory, ttl: ttl, now: time.Now}
}

// TTL returns the configured sliding session expiry.
func (m *ContextManager) TTL() time.Duration {
	return m.ttl
}

// Ensure returns a live context for the session, creating a fresh one when
// none exists or the stored one has expired. Expiry is recovered
// transparently; callers never see it as an error.
func (m *ContextManager) Ensure(sc *model.SessionContext, sessionID, userID string) *model.SessionContext {
	now := m.now()
	if sc == nil {
		return model.NewSessionContext(sessionID, userID, now.Add(m.ttl))
	}
	if sc.Expired(now) {
		logx.Debug().Err(errx.ErrSessionExpired).Str("session_id", sessionID).Msg("creating fresh context")
		return model.NewSessionContext(sessionID, userID, now.Add(m.ttl))
	}
	if userID != "" {
		sc.UserID = userID
	}
	// sliding expiration: every access refreshes the deadline
	sc.ExpiresAt = now.Add(m.ttl)
	return sc
}

// Merge appends this turn to history (evicting the oldest record past the
// configured maximum) and overwrites one slot per extracted entity type.
func (m *ContextManager) Merge(sc *model.SessionContext, nlu *model.NLUResult, rawText string) *model.SessionContext {
	now := m.now()

	sc.History = append(sc.History, model.Turn{Text: rawText, NLU: nlu, Timestamp: now})
	if over := len(sc.History) - m.maxHistory; over > 0 {
		sc.History = append(sc.History[:0:0], sc.History[over:]...)
	}

	if sc.Slots == nil {
		sc.Slots = map[string]string{}
	}
	for _, e := range nlu.Entities {
		sc.Slots[e.Type] = e.Value
	}

	sc.ExpiresAt = now.Add(m.ttl)
	return sc
}
