package nlu

import "github.com/dialogcore/server/internal/agent/model"

// defaultLexicon maps tokens to polarity, AFINN style. Values are summed
// per utterance; the sign convention is positive-is-good.
var defaultLexicon = map[string]float64{
	"amazing":      3,
	"awesome":      3,
	"excellent":    3,
	"fantastic":    3,
	"love":         3,
	"perfect":      3,
	"wonderful":    3,
	"best":         2,
	"glad":         2,
	"good":         2,
	"great":        2,
	"happy":        2,
	"helpful":      2,
	"nice":         2,
	"pleased":      2,
	"thank":        2,
	"thanks":       2,
	"fine":         1,
	"like":         1,
	"ok":           1,
	"okay":         1,
	"useful":       1,
	"annoying":     -2,
	"bad":          -2,
	"broken":       -2,
	"disappointed": -2,
	"poor":         -2,
	"sad":          -2,
	"slow":         -2,
	"unhappy":      -2,
	"wrong":        -2,
	"angry":        -3,
	"awful":        -3,
	"hate":         -3,
	"horrible":     -3,
	"terrible":     -3,
	"useless":      -3,
	"worst":        -3,
}

// Scorer computes lexicon polarity for normalized text. Stateless after
// construction and safe for concurrent use.
type Scorer struct {
	lexicon   map[string]float64
	threshold float64
}

// NewScorer builds a scorer over the built-in lexicon. The threshold
// separates neutral from positive (score > threshold) and negative
// (score < -threshold).
func NewScorer(threshold float64) *Scorer {
	return &Scorer{lexicon: defaultLexicon, threshold: threshold}
}

// NewScorerWithLexicon builds a scorer over a caller-supplied lexicon.
func NewScorerWithLexicon(threshold float64, lexicon map[string]float64) *Scorer {
	return &Scorer{lexicon: lexicon, threshold: threshold}
}

// Score sums per-token polarity into a sentiment. Comparative is the score
// divided by the token count, 0 for empty input. Adding a positive-polarity
// token never decreases the score; a negative one never increases it.
func (s *Scorer) Score(normalized string) model.Sentiment {
	tokens := Tokenize(normalized)

	var score float64
	for _, tok := range tokens {
		score += s.lexicon[tok]
	}

	comparative := 0.0
	if len(tokens) > 0 {
		comparative = score / float64(len(tokens))
	}

	label := model.SentimentNeutral
	switch {
	case score > s.threshold:
		label = model.SentimentPositive
	case score < -s.threshold:
		label = model.SentimentNegative
	}

	return model.Sentiment{Score: score, Comparative: comparative, Label: label}
}
