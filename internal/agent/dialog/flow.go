package dialog

import (
	"context"

	"github.com/dialogcore/server/internal/agent/model"
	errx "github.com/dialogcore/server/internal/core/error"
	logx "github.com/dialogcore/server/pkg/logger"
)

// Decision is the flow engine's verdict for one turn. When Message is
// non-empty the selector returns it (with slot substitution) instead of an
// intent response. Aborted marks a flow torn down by a missing step id, in
// which case the selector serves the fallback response.
type Decision struct {
	Message  string
	FromFlow bool
	Aborted  bool
}

// Engine is the per-session dialogue state machine. A session is either
// Idle (no active flow) or inside exactly one flow at one step. The engine
// mutates only the session context it is handed; it keeps no state of its
// own and is safe to share across sessions.
type Engine struct {
	corpus   *model.Corpus
	notifier model.Notifier
}

func NewEngine(corpus *model.Corpus, notifier model.Notifier) *Engine {
	return &Engine{corpus: corpus, notifier: notifier}
}

// Advance evaluates flow transitions for one turn. The session's slots must
// already contain this turn's extracted entities (Merge runs first).
func (e *Engine) Advance(ctx context.Context, sc *model.SessionContext, nlu *model.NLUResult) Decision {
	intent := nlu.Intent

	if sc.Active != nil {
		flow, ok := e.corpus.Flow(sc.Active.Name)
		if !ok {
			logx.Warn().
				Str("session_id", sc.SessionID).
				Str("flow", sc.Active.Name).
				Msg("active flow no longer defined, aborting")
			e.transition(ctx, sc, sc.Active.Name, sc.Active.StepID, "aborted")
			sc.Active = nil
			return Decision{FromFlow: true, Aborted: true}
		}

		if e.interrupts(intent, sc.Active) {
			e.transition(ctx, sc, flow.Name, sc.Active.StepID, "interrupted")
			sc.Active = nil
			// fall through: the interrupting intent may itself trigger a flow
		} else {
			return e.run(ctx, sc, flow)
		}
	}

	// Idle: entering a new flow requires the session to have no active flow,
	// so at most one flow is ever active per session.
	if intent.Name != model.IntentFallback {
		for i := range e.corpus.Flows {
			flow := &e.corpus.Flows[i]
			if !flow.Active || !flow.Triggers(intent.Name) {
				continue
			}
			if !e.satisfiable(flow, sc) {
				logx.Debug().
					Str("session_id", sc.SessionID).
					Str("flow", flow.Name).
					Msg("flow trigger skipped, required entities not resolvable")
				continue
			}
			first, ok := flow.FirstStep()
			if !ok {
				continue
			}
			sc.Active = &model.ActiveFlow{Name: flow.Name, StepID: first.ID, TriggeredBy: intent.Name}
			e.transition(ctx, sc, flow.Name, "", first.ID)
			return e.run(ctx, sc, flow)
		}
	}

	return Decision{}
}

// satisfiable reports whether every entity the flow requires is already
// present in the session slots or can be gathered by one of the flow's own
// ask steps. A flow that can satisfy neither must not trigger: it would emit
// its templates with unresolved placeholders.
func (e *Engine) satisfiable(flow *model.ConversationFlow, sc *model.SessionContext) bool {
	for _, required := range flow.RequiredEntities {
		if _, ok := sc.Slot(required); ok {
			continue
		}
		if !asksFor(flow, required) {
			return false
		}
	}
	return true
}

func asksFor(flow *model.ConversationFlow, entityType string) bool {
	for _, step := range flow.Steps {
		if step.Kind != model.StepAsk {
			continue
		}
		for _, expected := range step.Expects {
			if expected == entityType {
				return true
			}
		}
	}
	return false
}

// interrupts applies the interrupt policy: the reserved cancel intent, or
// an accepted intent whose declared priority strictly exceeds that of the
// intent which triggered the active flow, discards flow progress. Fallback
// never interrupts: an unparseable utterance mid-flow is treated as a bad
// answer to re-prompt, not an intent change.
func (e *Engine) interrupts(intent model.IntentPrediction, active *model.ActiveFlow) bool {
	if intent.Name == model.IntentCancel {
		return true
	}
	if intent.Name == model.IntentFallback {
		return false
	}
	return e.corpus.IntentPriority(intent.Name) > e.corpus.IntentPriority(active.TriggeredBy)
}

// run walks the flow from the session's current step until the turn yields
// a message, waits on an ask, or the flow ends. The iteration bound guards
// against branch cycles.
func (e *Engine) run(ctx context.Context, sc *model.SessionContext, flow *model.ConversationFlow) Decision {
	for i := 0; i <= len(flow.Steps); i++ {
		step, ok := flow.Step(sc.Active.StepID)
		if !ok {
			logx.Warn().
				Err(errx.ErrFlowStepNotFound).
				Str("session_id", sc.SessionID).
				Str("flow", flow.Name).
				Str("step_id", sc.Active.StepID).
				Msg("aborting flow")
			e.transition(ctx, sc, flow.Name, sc.Active.StepID, "aborted")
			sc.Active = nil
			return Decision{FromFlow: true, Aborted: true}
		}

		switch step.Kind {
		case model.StepAsk:
			if !sc.HasSlots(step.Expects) {
				// still missing: stay at this step and re-prompt
				return Decision{Message: step.Message, FromFlow: true}
			}
			if step.Next == "" {
				e.finish(ctx, sc, flow, step.ID)
				return Decision{}
			}
			e.advanceTo(ctx, sc, flow, step.ID, step.Next)

		case model.StepResponse:
			if step.Next == "" {
				e.finish(ctx, sc, flow, step.ID)
			} else {
				e.advanceTo(ctx, sc, flow, step.ID, step.Next)
			}
			return Decision{Message: step.Message, FromFlow: true}

		case model.StepBranch:
			next := step.Next
			for _, b := range step.Branches {
				if v, ok := sc.Slot(b.Slot); ok && v == b.Equals {
					next = b.Next
					break
				}
			}
			if next == "" {
				e.finish(ctx, sc, flow, step.ID)
				return Decision{}
			}
			e.advanceTo(ctx, sc, flow, step.ID, next)

		case model.StepEnd:
			e.finish(ctx, sc, flow, step.ID)
			if step.Message != "" {
				return Decision{Message: step.Message, FromFlow: true}
			}
			return Decision{}

		default:
			logx.Warn().
				Str("flow", flow.Name).
				Str("step_id", step.ID).
				Str("kind", step.Kind).
				Msg("unknown step kind, aborting flow")
			e.transition(ctx, sc, flow.Name, step.ID, "aborted")
			sc.Active = nil
			return Decision{FromFlow: true, Aborted: true}
		}
	}

	// only reachable through a transition cycle
	e.transition(ctx, sc, flow.Name, sc.Active.StepID, "aborted")
	sc.Active = nil
	return Decision{FromFlow: true, Aborted: true}
}

func (e *Engine) advanceTo(ctx context.Context, sc *model.SessionContext, flow *model.ConversationFlow, from, to string) {
	sc.Active.StepID = to
	e.transition(ctx, sc, flow.Name, from, to)
}

func (e *Engine) finish(ctx context.Context, sc *model.SessionContext, flow *model.ConversationFlow, from string) {
	e.transition(ctx, sc, flow.Name, from, "idle")
	sc.Active = nil
}

func (e *Engine) transition(ctx context.Context, sc *model.SessionContext, flow, from, to string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, model.Event{
		Name:      model.EventFlowTransition,
		SessionID: sc.SessionID,
		Fields:    map[string]any{"flow": flow, "from": from, "to": to},
	})
}
