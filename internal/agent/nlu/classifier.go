package nlu

import (
	"fmt"
	"math"
	"sort"

	"github.com/dialogcore/server/internal/agent/model"
	errx "github.com/dialogcore/server/internal/core/error"
	logx "github.com/dialogcore/server/pkg/logger"
)

type tokenSet map[string]struct{}

func newTokenSet(tokens []string) tokenSet {
	set := make(tokenSet, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// cosine is the token-set cosine similarity |A∩B| / sqrt(|A|*|B|),
// always within [0,1] and exactly 1 for identical sets.
func cosine(a, b tokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	overlap := 0
	for t := range a {
		if _, ok := b[t]; ok {
			overlap++
		}
	}
	return float64(overlap) / math.Sqrt(float64(len(a))*float64(len(b)))
}

type trainedIntent struct {
	name     string
	priority int
	patterns []tokenSet
}

// Classifier ranks intents by token-set similarity against each intent's
// training patterns. The model is built once by Train and read-only
// afterwards, so concurrent Classify calls need no locking.
type Classifier struct {
	threshold float64
	intents   []trainedIntent
	trained   bool
}

// NewClassifier creates an untrained classifier with the given acceptance
// threshold. Classify fails with ErrModelNotTrained until Train succeeds.
func NewClassifier(threshold float64) *Classifier {
	return &Classifier{threshold: threshold}
}

// Threshold returns the configured acceptance threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Trained reports whether the model has been built.
func (c *Classifier) Trained() bool {
	return c.trained
}

// Train builds the model from the corpus intent definitions. Inactive
// intents are excluded from ranking. Training a classifier is cheap enough
// to run at startup; it is never invoked per request.
func (c *Classifier) Train(corpus *model.Corpus) error {
	if corpus == nil || len(corpus.Intents) == 0 {
		return fmt.Errorf("%w: corpus has no intents", errx.ErrCorpusLoad)
	}

	intents := make([]trainedIntent, 0, len(corpus.Intents))
	patternCount := 0
	for _, it := range corpus.Intents {
		if !it.Active {
			continue
		}
		ti := trainedIntent{name: it.Name, priority: it.Priority}
		for _, p := range it.Patterns {
			tokens := Tokenize(Normalize(p))
			if len(tokens) == 0 {
				continue
			}
			ti.patterns = append(ti.patterns, newTokenSet(tokens))
			patternCount++
		}
		intents = append(intents, ti)
	}
	if len(intents) == 0 {
		return fmt.Errorf("%w: no active intents", errx.ErrCorpusLoad)
	}

	c.intents = intents
	c.trained = true
	logx.Info().
		Int("intents", len(intents)).
		Int("patterns", patternCount).
		Float64("threshold", c.threshold).
		Msg("intent model trained")
	return nil
}

// Classify scores normalized text against every trained intent and returns
// the ranked (intent, confidence) list, best first. Ties break on declared
// priority, then name, so the ranking is deterministic.
func (c *Classifier) Classify(normalized string) ([]model.IntentPrediction, error) {
	if !c.trained {
		return nil, errx.ErrModelNotTrained
	}

	utterance := newTokenSet(Tokenize(normalized))
	ranked := make([]model.IntentPrediction, 0, len(c.intents))
	for _, ti := range c.intents {
		best := 0.0
		for _, p := range ti.patterns {
			if s := cosine(utterance, p); s > best {
				best = s
			}
		}
		ranked = append(ranked, model.IntentPrediction{Name: ti.name, Confidence: best})
	}

	priority := make(map[string]int, len(c.intents))
	for _, ti := range c.intents {
		priority[ti.name] = ti.priority
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		if priority[ranked[i].Name] != priority[ranked[j].Name] {
			return priority[ranked[i].Name] > priority[ranked[j].Name]
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked, nil
}

// Resolve applies the acceptance threshold to a ranked list: the top intent
// wins when its confidence reaches the threshold, otherwise the reserved
// fallback intent is used with the top confidence preserved for reporting.
func (c *Classifier) Resolve(ranked []model.IntentPrediction) model.IntentPrediction {
	if len(ranked) > 0 && ranked[0].Confidence >= c.threshold && ranked[0].Name != model.IntentFallback {
		return ranked[0]
	}
	top := 0.0
	if len(ranked) > 0 {
		top = ranked[0].Confidence
	}
	return model.IntentPrediction{Name: model.IntentFallback, Confidence: top}
}
