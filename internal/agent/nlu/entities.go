package nlu

import (
	"fmt"
	"regexp"

	"github.com/dialogcore/server/internal/agent/model"
	errx "github.com/dialogcore/server/internal/core/error"
	logx "github.com/dialogcore/server/pkg/logger"
)

// DefaultEntityTypes is the built-in entity rule table. Corpus-declared
// types with the same tag override these; new tags are appended after them,
// so extraction order stays stable across runs.
func DefaultEntityTypes() []model.EntityType {
	return []model.EntityType{
		{Type: "email", Pattern: `[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`},
		{Type: "url", Pattern: `(?:https?://|www\.)[a-z0-9./?=&%_:#+-]+`},
		{Type: "phone", Pattern: `\+?[0-9][0-9-]{6,}[0-9]`},
		{Type: "date", Pattern: `\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|today|tomorrow|yesterday)\b`},
		{Type: "time", Pattern: `\b\d{1,2}:\d{2}(?: ?(?:am|pm))?\b`},
		{Type: "number", Pattern: `\b\d+(?:\.\d+)?\b`},
	}
}

type entityRule struct {
	entityType string
	pattern    *regexp.Regexp
}

// Extractor scans normalized text against a declarative rule table, one
// compiled matcher per entity type, in declaration order. Identical text
// and table always yield identical spans. Overlapping matches across
// different types are kept; deduplication is a documented non-feature.
type Extractor struct {
	rules []entityRule
}

// NewExtractor compiles the rule table. A type with an empty tag or an
// invalid pattern is skipped with a warning, never a hard failure, so the
// remaining types still extract.
func NewExtractor(defs []model.EntityType) *Extractor {
	rules := make([]entityRule, 0, len(defs))
	for _, def := range defs {
		rule, err := compileRule(def)
		if err != nil {
			logx.Warn().
				Err(err).
				Str("entity_type", def.Type).
				Msg("skipping misconfigured entity type")
			continue
		}
		rules = append(rules, rule)
	}
	return &Extractor{rules: rules}
}

func compileRule(def model.EntityType) (entityRule, error) {
	if def.Type == "" {
		return entityRule{}, fmt.Errorf("%w: empty type tag", errx.ErrUnknownEntityType)
	}
	if def.Pattern == "" {
		return entityRule{}, fmt.Errorf("%w: %s has no pattern", errx.ErrUnknownEntityType, def.Type)
	}
	re, err := regexp.Compile(def.Pattern)
	if err != nil {
		return entityRule{}, fmt.Errorf("%w: %s: %v", errx.ErrUnknownEntityType, def.Type, err)
	}
	return entityRule{entityType: def.Type, pattern: re}, nil
}

// Extract returns every match of every rule as typed entities with byte
// offsets into the normalized input text.
func (x *Extractor) Extract(normalized string) []model.Entity {
	var entities []model.Entity
	for _, rule := range x.rules {
		for _, span := range rule.pattern.FindAllStringIndex(normalized, -1) {
			entities = append(entities, model.Entity{
				Type:  rule.entityType,
				Value: normalized[span[0]:span[1]],
				Start: span[0],
				End:   span[1],
			})
		}
	}
	return entities
}

// MergeEntityTypes combines the default rule table with corpus-declared
// definitions: same tag overrides the default in place, new tags append.
func MergeEntityTypes(declared []model.EntityType) []model.EntityType {
	merged := DefaultEntityTypes()
	index := make(map[string]int, len(merged))
	for i, def := range merged {
		index[def.Type] = i
	}
	for _, def := range declared {
		if i, ok := index[def.Type]; ok {
			merged[i] = def
			continue
		}
		index[def.Type] = len(merged)
		merged = append(merged, def)
	}
	return merged
}
