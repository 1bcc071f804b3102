package dialog

import (
	"context"
	"testing"
	"time"

	"github.com/dialogcore/server/internal/agent/model"
)

func flowCorpus() *model.Corpus {
	return &model.Corpus{
		Intents: []model.Intent{
			{Name: "greeting", Priority: 1, Active: true, Responses: []string{"Hello!"}},
			{Name: "help", Priority: 2, Active: true, Responses: []string{"What do you need?"}},
			{Name: "complaint", Priority: 3, Active: true, Responses: []string{"Sorry to hear that."}},
			{Name: model.IntentCancel, Priority: 1, Active: true, Responses: []string{"Okay, cancelled."}},
			{Name: model.IntentFallback, Active: true, Responses: []string{"Sorry, come again?"}},
		},
		Flows: []model.ConversationFlow{
			{
				Name:             "product-support",
				TriggerIntents:   []string{"help"},
				RequiredEntities: []string{"product"},
				Active:           true,
				Steps: []model.Step{
					{ID: "ask-product", Kind: model.StepAsk, Message: "Which product do you need help with?", Expects: []string{"product"}, Next: "confirm"},
					{ID: "confirm", Kind: model.StepResponse, Message: "Opening a ticket for your {product}."},
				},
			},
			{
				Name:           "welcome-tour",
				TriggerIntents: []string{"greeting"},
				Active:         true,
				Steps: []model.Step{
					{ID: "intro", Kind: model.StepResponse, Message: "Welcome aboard!"},
				},
			},
		},
	}
}

func intentOf(name string) *model.NLUResult {
	return &model.NLUResult{Intent: model.IntentPrediction{Name: name, Confidence: 0.9}}
}

func idleSession(id string) *model.SessionContext {
	return model.NewSessionContext(id, "", time.Now().Add(time.Hour))
}

func TestFlowEntersOnTriggerIntent(t *testing.T) {
	e := NewEngine(flowCorpus(), nil)
	sc := idleSession("s1")

	d := e.Advance(context.Background(), sc, intentOf("help"))

	if !d.FromFlow || d.Message != "Which product do you need help with?" {
		t.Fatalf("unexpected decision %+v", d)
	}
	if sc.Active == nil || sc.Active.Name != "product-support" || sc.Active.StepID != "ask-product" {
		t.Fatalf("session not inside flow at ask step: %+v", sc.Active)
	}
	if sc.Active.TriggeredBy != "help" {
		t.Fatalf("trigger intent not recorded: %+v", sc.Active)
	}
}

func TestAskStaysUntilEntitySuppliedThenAdvances(t *testing.T) {
	e := NewEngine(flowCorpus(), nil)
	sc := idleSession("s1")
	ctx := context.Background()

	e.Advance(ctx, sc, intentOf("help"))

	// unparseable answer with no product entity: re-prompt, same step
	d := e.Advance(ctx, sc, intentOf(model.IntentFallback))
	if d.Message != "Which product do you need help with?" {
		t.Fatalf("expected re-prompt, got %+v", d)
	}
	if sc.Active == nil || sc.Active.StepID != "ask-product" {
		t.Fatalf("session moved off ask step: %+v", sc.Active)
	}

	// this turn supplied the product entity (merged into slots before Advance)
	sc.Slots["product"] = "laptop"
	d = e.Advance(ctx, sc, intentOf(model.IntentFallback))
	if d.Message != "Opening a ticket for your {product}." {
		t.Fatalf("expected confirm step message, got %+v", d)
	}
	if sc.Active != nil {
		t.Fatalf("flow should be complete, active = %+v", sc.Active)
	}
}

func TestFlowRequiresEntitiesResolvableBeforeTrigger(t *testing.T) {
	c := &model.Corpus{
		Intents: []model.Intent{
			{Name: "refund", Priority: 1, Active: true, Responses: []string{"Let me check."}},
			{Name: model.IntentFallback, Active: true, Responses: []string{"Sorry, come again?"}},
		},
		Flows: []model.ConversationFlow{
			{
				Name:             "refund",
				TriggerIntents:   []string{"refund"},
				RequiredEntities: []string{"order_id"},
				Active:           true,
				Steps: []model.Step{
					{ID: "confirm", Kind: model.StepResponse, Message: "Refund started for order {order_id}."},
				},
			},
		},
	}
	e := NewEngine(c, nil)
	ctx := context.Background()

	// no order_id slot and no ask step to gather one: the flow must not
	// trigger, or it would emit its template with the placeholder unresolved
	sc := idleSession("s1")
	d := e.Advance(ctx, sc, intentOf("refund"))
	if d.FromFlow || d.Message != "" {
		t.Fatalf("flow triggered without its required entity: %+v", d)
	}
	if sc.Active != nil {
		t.Fatalf("session entered unsatisfiable flow: %+v", sc.Active)
	}

	// the slot already present satisfies the requirement
	sc = idleSession("s2")
	sc.Slots["order_id"] = "42"
	d = e.Advance(ctx, sc, intentOf("refund"))
	if d.Message != "Refund started for order {order_id}." {
		t.Fatalf("flow did not trigger with required slot present: %+v", d)
	}
}

func TestFlowTriggersWhenAskStepGathersRequiredEntity(t *testing.T) {
	// product-support requires "product" but its ask step expects it
	e := NewEngine(flowCorpus(), nil)
	sc := idleSession("s1")

	d := e.Advance(context.Background(), sc, intentOf("help"))

	if sc.Active == nil || sc.Active.Name != "product-support" {
		t.Fatalf("flow with a gathering ask step did not trigger: %+v", sc.Active)
	}
	if d.Message != "Which product do you need help with?" {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestAtMostOneActiveFlow(t *testing.T) {
	e := NewEngine(flowCorpus(), nil)
	sc := idleSession("s1")
	ctx := context.Background()

	e.Advance(ctx, sc, intentOf("help"))

	// greeting triggers welcome-tour but has lower priority than the
	// active flow's trigger: it must not enter a second flow
	d := e.Advance(ctx, sc, intentOf("greeting"))

	if sc.Active == nil || sc.Active.Name != "product-support" {
		t.Fatalf("active flow changed: %+v", sc.Active)
	}
	if d.Message != "Which product do you need help with?" {
		t.Fatalf("expected re-prompt from active flow, got %+v", d)
	}
}

func TestHigherPriorityIntentInterrupts(t *testing.T) {
	e := NewEngine(flowCorpus(), nil)
	sc := idleSession("s1")
	ctx := context.Background()

	e.Advance(ctx, sc, intentOf("help"))
	d := e.Advance(ctx, sc, intentOf("complaint"))

	if sc.Active != nil {
		t.Fatalf("flow survived higher-priority interrupt: %+v", sc.Active)
	}
	if d.Message != "" || d.Aborted {
		t.Fatalf("interrupt should defer to intent response, got %+v", d)
	}
}

func TestCancelInterrupts(t *testing.T) {
	e := NewEngine(flowCorpus(), nil)
	sc := idleSession("s1")
	ctx := context.Background()

	e.Advance(ctx, sc, intentOf("help"))
	e.Advance(ctx, sc, intentOf(model.IntentCancel))

	if sc.Active != nil {
		t.Fatalf("cancel did not return session to idle: %+v", sc.Active)
	}
}

func TestMissingStepAbortsFlow(t *testing.T) {
	c := flowCorpus()
	c.Flows[0].Steps[0].Next = "nowhere"
	e := NewEngine(c, nil)
	sc := idleSession("s1")
	ctx := context.Background()

	e.Advance(ctx, sc, intentOf("help"))
	sc.Slots["product"] = "laptop"
	d := e.Advance(ctx, sc, intentOf(model.IntentFallback))

	if !d.Aborted {
		t.Fatalf("missing step should abort, got %+v", d)
	}
	if sc.Active != nil {
		t.Fatalf("aborted flow left session in-flow: %+v", sc.Active)
	}
}

func TestBranchStepRoutesOnSlotValue(t *testing.T) {
	c := &model.Corpus{
		Intents: []model.Intent{
			{Name: "order", Priority: 1, Active: true},
			{Name: model.IntentFallback, Active: true},
		},
		Flows: []model.ConversationFlow{
			{
				Name:           "sizing",
				TriggerIntents: []string{"order"},
				Active:         true,
				Steps: []model.Step{
					{ID: "ask-size", Kind: model.StepAsk, Message: "What size?", Expects: []string{"size"}, Next: "route"},
					{ID: "route", Kind: model.StepBranch, Next: "regular", Branches: []model.Branch{{Slot: "size", Equals: "large", Next: "upsell"}}},
					{ID: "upsell", Kind: model.StepResponse, Message: "Large it is, want a drink with that?"},
					{ID: "regular", Kind: model.StepEnd, Message: "Done, a {size} one."},
				},
			},
		},
	}
	e := NewEngine(c, nil)
	ctx := context.Background()

	sc := idleSession("s1")
	e.Advance(ctx, sc, intentOf("order"))
	sc.Slots["size"] = "large"
	d := e.Advance(ctx, sc, intentOf(model.IntentFallback))
	if d.Message != "Large it is, want a drink with that?" {
		t.Fatalf("branch did not route on slot match: %+v", d)
	}

	sc = idleSession("s2")
	e.Advance(ctx, sc, intentOf("order"))
	sc.Slots["size"] = "small"
	d = e.Advance(ctx, sc, intentOf(model.IntentFallback))
	if d.Message != "Done, a {size} one." {
		t.Fatalf("branch default route not taken: %+v", d)
	}
	if sc.Active != nil {
		t.Fatalf("end step did not idle the session: %+v", sc.Active)
	}
}

func TestFlowTransitionEventsEmitted(t *testing.T) {
	var events []model.Event
	notifier := notifierFunc(func(e model.Event) { events = append(events, e) })

	e := NewEngine(flowCorpus(), notifier)
	sc := idleSession("s1")
	e.Advance(context.Background(), sc, intentOf("help"))

	if len(events) == 0 {
		t.Fatalf("no flow_transition events emitted")
	}
	for _, ev := range events {
		if ev.Name != model.EventFlowTransition {
			t.Fatalf("unexpected event %q", ev.Name)
		}
		if ev.SessionID != "s1" {
			t.Fatalf("event missing session id: %+v", ev)
		}
	}
}

type notifierFunc func(e model.Event)

func (f notifierFunc) Notify(_ context.Context, e model.Event) { f(e) }
