package model

// Step kinds understood by the flow engine.
const (
	StepAsk      = "ask"
	StepResponse = "response"
	StepBranch   = "branch"
	StepEnd      = "end"
)

// Intent is a named category of user purpose with its training patterns and
// candidate reply templates.
type Intent struct {
	Name             string   `json:"name" yaml:"name"`
	Patterns         []string `json:"patterns" yaml:"patterns"`
	Responses        []string `json:"responses" yaml:"responses"`
	RequiredEntities []string `json:"required_entities,omitempty" yaml:"required_entities"`
	Priority         int      `json:"priority" yaml:"priority"`
	Active           bool     `json:"active" yaml:"active"`
}

// EntityType declares one row of the entity rule table: a type tag plus the
// regular expression its extractor scans with.
type EntityType struct {
	Type    string `json:"type" yaml:"type"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// Branch routes a branch-kind step to a next step when the named slot holds
// the given value.
type Branch struct {
	Slot   string `json:"slot" yaml:"slot"`
	Equals string `json:"equals" yaml:"equals"`
	Next   string `json:"next" yaml:"next"`
}

// Step is one node of a conversation flow. Ask steps prompt until one of the
// expected entity types appears in the session slots; response steps emit
// their message and advance; branch steps pick the next step from slot
// values; end steps return the session to idle.
type Step struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     string   `json:"kind" yaml:"kind"`
	Message  string   `json:"message,omitempty" yaml:"message"`
	Expects  []string `json:"expects,omitempty" yaml:"expects"`
	Next     string   `json:"next,omitempty" yaml:"next"`
	Branches []Branch `json:"branches,omitempty" yaml:"branches"`
}

// ConversationFlow is a multi-step guided interaction. The first declared
// step is the entry step.
type ConversationFlow struct {
	Name             string   `json:"name" yaml:"name"`
	TriggerIntents   []string `json:"trigger_intents" yaml:"trigger_intents"`
	RequiredEntities []string `json:"required_entities,omitempty" yaml:"required_entities"`
	Steps            []Step   `json:"steps" yaml:"steps"`
	Active           bool     `json:"active" yaml:"active"`
}

// Step returns the step with the given id.
func (f *ConversationFlow) Step(id string) (*Step, bool) {
	for i := range f.Steps {
		if f.Steps[i].ID == id {
			return &f.Steps[i], true
		}
	}
	return nil, false
}

// FirstStep returns the entry step of the flow.
func (f *ConversationFlow) FirstStep() (*Step, bool) {
	if len(f.Steps) == 0 {
		return nil, false
	}
	return &f.Steps[0], true
}

// Triggers reports whether the intent name is one of the flow's triggers.
func (f *ConversationFlow) Triggers(intentName string) bool {
	for _, t := range f.TriggerIntents {
		if t == intentName {
			return true
		}
	}
	return false
}

// Corpus bundles everything the pipeline is configured with at startup:
// intent definitions, the entity rule table, and conversation flows.
type Corpus struct {
	Intents  []Intent           `json:"intents" yaml:"intents"`
	Entities []EntityType       `json:"entities" yaml:"entities"`
	Flows    []ConversationFlow `json:"flows" yaml:"flows"`
}

// Intent returns the intent definition with the given name.
func (c *Corpus) Intent(name string) (*Intent, bool) {
	for i := range c.Intents {
		if c.Intents[i].Name == name {
			return &c.Intents[i], true
		}
	}
	return nil, false
}

// Flow returns the flow definition with the given name.
func (c *Corpus) Flow(name string) (*ConversationFlow, bool) {
	for i := range c.Flows {
		if c.Flows[i].Name == name {
			return &c.Flows[i], true
		}
	}
	return nil, false
}

// IntentPriority returns the declared priority for an intent name, 0 when
// the intent is unknown.
func (c *Corpus) IntentPriority(name string) int {
	if it, ok := c.Intent(name); ok {
		return it.Priority
	}
	return 0
}
