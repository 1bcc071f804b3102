package dialog

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dialogcore/server/internal/agent/corpus"
	"github.com/dialogcore/server/internal/agent/model"
)

// Selector chooses the outgoing reply for a turn. Selection over an
// intent's response candidates is uniform pseudo-random from an injected
// seed, so tests can assert exact output.
type Selector struct {
	corpus *model.Corpus

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector builds a selector. A zero seed picks one from the clock.
func NewSelector(c *model.Corpus, seed int64) *Selector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Selector{corpus: c, rng: rand.New(rand.NewSource(seed))}
}

// Select returns the reply text for one turn and whether the fallback path
// was taken. A flow-emitted message wins over intent responses; the
// fallback message is served for the fallback intent, intents with no
// responses, and aborted flows. The returned text is never empty.
func (s *Selector) Select(nlu *model.NLUResult, sc *model.SessionContext, d Decision) (string, bool) {
	if d.Message != "" {
		return render(d.Message, sc.Slots), false
	}
	if d.Aborted {
		return render(s.fallback(), sc.Slots), true
	}

	it, ok := s.corpus.Intent(nlu.Intent.Name)
	if !ok || it.Name == model.IntentFallback || len(it.Responses) == 0 {
		return render(s.fallback(), sc.Slots), true
	}
	return render(s.pick(it.Responses), sc.Slots), false
}

func (s *Selector) fallback() string {
	if fb, ok := s.corpus.Intent(model.IntentFallback); ok && len(fb.Responses) > 0 {
		return s.pick(fb.Responses)
	}
	return corpus.DefaultFallbackMessage
}

func (s *Selector) pick(candidates []string) string {
	if len(candidates) == 1 {
		return candidates[0]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return candidates[s.rng.Intn(len(candidates))]
}

// render substitutes {slot} placeholders with session slot values.
func render(template string, slots map[string]string) string {
	if len(slots) == 0 || !strings.Contains(template, "{") {
		return template
	}
	out := template
	for name, value := range slots {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}
