package dialog

import (
	"testing"
	"time"

	"github.com/dialogcore/server/internal/agent/corpus"
	"github.com/dialogcore/server/internal/agent/model"
)

func selectorCorpus() *model.Corpus {
	return &model.Corpus{
		Intents: []model.Intent{
			{Name: "greeting", Active: true, Responses: []string{"Hello!", "Hi there!", "Hey!"}},
			{Name: "mute", Active: true}, // no responses configured
			{Name: model.IntentFallback, Active: true, Responses: []string{"Sorry, come again?"}},
		},
	}
}

func resultFor(intent string) *model.NLUResult {
	return &model.NLUResult{Intent: model.IntentPrediction{Name: intent, Confidence: 0.9}}
}

func TestSelectIsReproducibleUnderSeed(t *testing.T) {
	sc := model.NewSessionContext("s1", "", time.Now().Add(time.Hour))

	a := NewSelector(selectorCorpus(), 42)
	b := NewSelector(selectorCorpus(), 42)

	for i := 0; i < 10; i++ {
		ra, _ := a.Select(resultFor("greeting"), sc, Decision{})
		rb, _ := b.Select(resultFor("greeting"), sc, Decision{})
		if ra != rb {
			t.Fatalf("same seed diverged at pick %d: %q vs %q", i, ra, rb)
		}
	}
}

func TestSelectChoosesFromIntentResponses(t *testing.T) {
	sc := model.NewSessionContext("s1", "", time.Now().Add(time.Hour))
	s := NewSelector(selectorCorpus(), 7)

	candidates := map[string]bool{"Hello!": true, "Hi there!": true, "Hey!": true}
	for i := 0; i < 20; i++ {
		reply, fallback := s.Select(resultFor("greeting"), sc, Decision{})
		if fallback {
			t.Fatalf("greeting selection flagged as fallback")
		}
		if !candidates[reply] {
			t.Fatalf("reply %q not in the greeting response set", reply)
		}
	}
}

func TestSelectFallbackPathsNeverEmpty(t *testing.T) {
	sc := model.NewSessionContext("s1", "", time.Now().Add(time.Hour))
	s := NewSelector(selectorCorpus(), 7)

	cases := []struct {
		name   string
		nlu    *model.NLUResult
		d      Decision
	}{
		{"fallback intent", resultFor(model.IntentFallback), Decision{}},
		{"unknown intent", resultFor("nonexistent"), Decision{}},
		{"intent without responses", resultFor("mute"), Decision{}},
		{"aborted flow", resultFor("greeting"), Decision{FromFlow: true, Aborted: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply, fallback := s.Select(tc.nlu, sc, tc.d)
			if reply == "" {
				t.Fatalf("fallback path returned empty reply")
			}
			if !fallback {
				t.Fatalf("fallback path not flagged")
			}
		})
	}
}

func TestSelectDefaultFallbackWhenNoneConfigured(t *testing.T) {
	c := &model.Corpus{Intents: []model.Intent{{Name: "greeting", Active: true}}}
	sc := model.NewSessionContext("s1", "", time.Now().Add(time.Hour))
	s := NewSelector(c, 7)

	reply, fallback := s.Select(resultFor("greeting"), sc, Decision{})
	if reply != corpus.DefaultFallbackMessage {
		t.Fatalf("reply = %q, want reserved default fallback message", reply)
	}
	if !fallback {
		t.Fatalf("fallback not flagged")
	}
}

func TestSelectRendersFlowMessageWithSlots(t *testing.T) {
	sc := model.NewSessionContext("s1", "", time.Now().Add(time.Hour))
	sc.Slots["product"] = "laptop"
	s := NewSelector(selectorCorpus(), 7)

	reply, fallback := s.Select(resultFor("greeting"), sc, Decision{
		Message:  "Opening a ticket for your {product}.",
		FromFlow: true,
	})
	if reply != "Opening a ticket for your laptop." {
		t.Fatalf("slot substitution failed: %q", reply)
	}
	if fallback {
		t.Fatalf("flow message flagged as fallback")
	}
}
