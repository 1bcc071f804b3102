package model

// Sentiment labels produced by the lexicon scorer.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Reserved intent names the pipeline gives special meaning to.
const (
	IntentFallback = "fallback"
	IntentCancel   = "cancel"
)

// Entity is a typed span extracted from normalized text. Start and End are
// byte offsets into the normalized text the entity was extracted from.
// Overlapping spans across different types are kept as-is, not deduplicated.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Sentiment holds the lexicon polarity result for one utterance.
// Score is the summed token polarity, Comparative is Score divided by the
// token count (0 when the utterance has no tokens).
type Sentiment struct {
	Score       float64 `json:"score"`
	Comparative float64 `json:"comparative"`
	Label       string  `json:"label"`
}

// IntentPrediction is one (intent, confidence) pair from the classifier.
// Confidence is always within [0,1].
type IntentPrediction struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// NLUResult is the merged understanding of a single utterance. It is built
// once per turn and never mutated afterwards.
type NLUResult struct {
	NormalizedText string             `json:"normalized_text"`
	Intent         IntentPrediction   `json:"intent"`
	Ranked         []IntentPrediction `json:"ranked,omitempty"`
	Entities       []Entity           `json:"entities,omitempty"`
	Sentiment      Sentiment          `json:"sentiment"`
}

// EntityOfType returns the first extracted entity of the given type.
func (r *NLUResult) EntityOfType(entityType string) (Entity, bool) {
	for _, e := range r.Entities {
		if e.Type == entityType {
			return e, true
		}
	}
	return Entity{}, false
}
