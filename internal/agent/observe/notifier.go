// Package observe implements the observability collaborator: it receives
// structured pipeline events and forwards them to the logger. It owns no
// formatting or storage logic beyond field mapping.
package observe

import (
	"context"

	"github.com/dialogcore/server/internal/agent/model"
	logx "github.com/dialogcore/server/pkg/logger"
)

// LogNotifier writes every event as one structured log line.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(_ context.Context, e model.Event) {
	evt := logx.Info().Str("event", e.Name)
	if e.SessionID != "" {
		evt = evt.Str("session_id", e.SessionID)
	}
	if len(e.Fields) > 0 {
		evt = evt.Fields(e.Fields)
	}
	evt.Msg("pipeline event")
}

var _ model.Notifier = (*LogNotifier)(nil)
