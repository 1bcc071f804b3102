// Package nodes defines the lambda nodes of the per-turn pipeline graph and
// their state handlers.
package nodes

import (
	"context"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/dialogcore/server/internal/agent/dialog"
	"github.com/dialogcore/server/internal/agent/model"
	"github.com/dialogcore/server/internal/agent/nlu"
	logx "github.com/dialogcore/server/pkg/logger"
)

// Node keys of the turn graph.
const (
	NodeUnderstand = "understand"
	NodeDialog     = "dialog"
	NodeRespond    = "respond"
)

// TurnState is the value threaded through the graph for one turn.
type TurnState struct {
	Input    model.TurnInput
	NLU      *model.NLUResult
	Session  *model.SessionContext
	Decision dialog.Decision
	Degraded bool
}

// NewUnderstandPreHandler stamps per-invocation state before the pipeline runs.
func NewUnderstandPreHandler() func(context.Context, model.TurnInput, *model.AppState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.AppState) (model.TurnInput, error) {
		s.SessionID = in.SessionID
		s.StartedAt = time.Now()
		return in, nil
	}
}

// NewUnderstandNode creates the NLU node: normalization, entity extraction,
// sentiment scoring, and intent classification over the same normalized
// text. The three sub-pipelines are independent pure functions; only the
// merged NLUResult leaves the node.
func NewUnderstandNode(
	extractor *nlu.Extractor,
	scorer *nlu.Scorer,
	classifier *nlu.Classifier,
	notifier model.Notifier,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (*TurnState, error) {
		normalized := nlu.Normalize(in.Text)

		entities := extractor.Extract(normalized)
		sentiment := scorer.Score(normalized)

		ranked, err := classifier.Classify(normalized)
		if err != nil {
			// only ErrModelNotTrained reaches here; callers treat it as a
			// startup defect, not a per-request condition
			logx.Error().Err(err).Str("session_id", in.SessionID).Msg("classification failed")
			return nil, err
		}
		intent := classifier.Resolve(ranked)

		result := &model.NLUResult{
			NormalizedText: normalized,
			Intent:         intent,
			Ranked:         ranked,
			Entities:       entities,
			Sentiment:      sentiment,
		}

		if notifier != nil {
			notifier.Notify(ctx, model.Event{
				Name:      model.EventNLUProcessed,
				SessionID: in.SessionID,
				Fields: map[string]any{
					"intent":     intent.Name,
					"confidence": intent.Confidence,
					"entities":   len(entities),
					"sentiment":  sentiment.Label,
				},
			})
		}

		return &TurnState{Input: in, NLU: result}, nil
	})
}

// NewDialogNode creates the state node: it loads (or creates) the session
// context, merges this turn's understanding into it, and advances the flow
// engine. A session store failure degrades the turn to a fresh in-memory
// context instead of failing it.
func NewDialogNode(
	store model.SessionStore,
	manager *dialog.ContextManager,
	engine *dialog.Engine,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, st *TurnState) (*TurnState, error) {
		sc, err := store.Get(ctx, st.Input.SessionID)
		if err != nil {
			logx.Warn().Err(err).Str("session_id", st.Input.SessionID).Msg("session load failed, serving degraded")
			st.Degraded = true
			sc = nil
		}

		sc = manager.Ensure(sc, st.Input.SessionID, st.Input.UserID)
		sc = manager.Merge(sc, st.NLU, st.Input.Text)

		st.Decision = engine.Advance(ctx, sc, st.NLU)
		st.Session = sc
		return st, nil
	})
}

// NewRespondNode creates the reply node: response selection, then the
// durability writes (session context, message records, analytics). Every
// persistence failure is downgraded to the Degraded flag so the user always
// receives a reply.
func NewRespondNode(
	selector *dialog.Selector,
	store model.SessionStore,
	messages model.MessageRepository,
	notifier model.Notifier,
	sessionTTL time.Duration,
) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, st *TurnState) (*model.TurnResult, error) {
		reply, fallbackUsed := selector.Select(st.NLU, st.Session, st.Decision)

		if fallbackUsed && notifier != nil {
			notifier.Notify(ctx, model.Event{
				Name:      model.EventFallbackTriggered,
				SessionID: st.Input.SessionID,
				Fields:    map[string]any{"confidence": st.NLU.Intent.Confidence, "flow_aborted": st.Decision.Aborted},
			})
		}

		if err := store.Set(ctx, st.Session, sessionTTL); err != nil {
			logx.Warn().Err(err).Str("session_id", st.Input.SessionID).Msg("session write failed")
			st.Degraded = true
		}

		now := time.Now().UTC()
		if messages != nil {
			records := []*model.MessageRecord{
				{SessionID: st.Input.SessionID, UserID: st.Input.UserID, Role: "user", Text: st.Input.Text, Intent: st.NLU.Intent.Name, CreatedAt: now},
				{SessionID: st.Input.SessionID, UserID: st.Input.UserID, Role: "agent", Text: reply, Intent: st.NLU.Intent.Name, CreatedAt: now},
			}
			for _, rec := range records {
				if err := messages.SaveMessage(ctx, rec); err != nil {
					logx.Warn().Err(err).Str("session_id", st.Input.SessionID).Msg("message write failed")
					st.Degraded = true
					break
				}
			}
			if err := messages.SaveAnalytics(ctx, &model.AnalyticsRecord{
				SessionID:  st.Input.SessionID,
				Intent:     st.NLU.Intent.Name,
				Confidence: st.NLU.Intent.Confidence,
				Sentiment:  st.NLU.Sentiment.Label,
				Fallback:   fallbackUsed,
				CreatedAt:  now,
			}); err != nil {
				logx.Warn().Err(err).Str("session_id", st.Input.SessionID).Msg("analytics write failed")
				st.Degraded = true
			}
		}

		return &model.TurnResult{
			NLU:      st.NLU,
			Reply:    reply,
			Session:  st.Session,
			Degraded: st.Degraded,
		}, nil
	})
}

// NewRespondPostHandler logs per-turn latency once the reply is assembled.
func NewRespondPostHandler() func(context.Context, *model.TurnResult, *model.AppState) (*model.TurnResult, error) {
	return func(ctx context.Context, out *model.TurnResult, s *model.AppState) (*model.TurnResult, error) {
		logx.Debug().
			Str("session_id", s.SessionID).
			Str("intent", out.NLU.Intent.Name).
			Bool("degraded", out.Degraded).
			Dur("latency", time.Since(s.StartedAt)).
			Msg("turn processed")
		return out, nil
	}
}
