// Package corpus loads intent, entity, and flow definitions for the
// pipeline, either from a YAML file or from the built-in default set.
package corpus

import "github.com/dialogcore/server/internal/agent/model"

// DefaultFallbackMessage is the reserved reply served when nothing else
// matches or a flow aborts. This path must never be empty.
const DefaultFallbackMessage = "Sorry, I didn't quite get that. Could you rephrase?"

// Default returns the built-in intent set used when no corpus is configured
// or the configured one fails to load.
func Default() *model.Corpus {
	return &model.Corpus{
		Intents: []model.Intent{
			{
				Name:      "greeting",
				Patterns:  []string{"hello", "hi", "hey there", "good morning", "good evening", "hi there"},
				Responses: []string{"Hello! How can I help you today?", "Hi there! What can I do for you?", "Hey! How can I assist?"},
				Priority:  1,
				Active:    true,
			},
			{
				Name:      "goodbye",
				Patterns:  []string{"bye", "goodbye", "see you later", "talk to you later", "good night"},
				Responses: []string{"Goodbye! Have a great day.", "See you later!", "Bye! Come back any time."},
				Priority:  1,
				Active:    true,
			},
			{
				Name:      "help",
				Patterns:  []string{"help", "i need help", "can you help me", "help me please", "i need support"},
				Responses: []string{"Of course, what do you need help with?", "I'm here to help. What's the problem?"},
				Priority:  2,
				Active:    true,
			},
			{
				Name:      "question",
				Patterns:  []string{"what is this", "how does this work", "what can you do", "tell me more"},
				Responses: []string{"I can answer questions, take requests, and guide you through common tasks.", "Ask away, I'll do my best."},
				Priority:  1,
				Active:    true,
			},
			{
				Name:      "compliment",
				Patterns:  []string{"you are great", "well done", "that was helpful", "good job", "you are awesome"},
				Responses: []string{"Thank you, happy to help!", "Glad I could help."},
				Priority:  1,
				Active:    true,
			},
			{
				Name:      "complaint",
				Patterns:  []string{"this is not working", "i have a problem", "this is broken", "i am not happy", "this is terrible"},
				Responses: []string{"I'm sorry to hear that. Can you tell me more about the problem?", "Sorry about that, let's get it sorted out."},
				Priority:  2,
				Active:    true,
			},
			{
				Name:      model.IntentFallback,
				Patterns:  nil,
				Responses: []string{DefaultFallbackMessage, "I'm not sure I understood. Can you say that differently?"},
				Priority:  0,
				Active:    true,
			},
		},
		Entities: nil,
		Flows:    nil,
	}
}

// Normalize prepares a loaded corpus for use: it guarantees the reserved
// fallback intent exists so the no-reply-never path always has a source.
func Normalize(c *model.Corpus) *model.Corpus {
	if _, ok := c.Intent(model.IntentFallback); !ok {
		c.Intents = append(c.Intents, model.Intent{
			Name:      model.IntentFallback,
			Responses: []string{DefaultFallbackMessage},
			Active:    true,
		})
	}
	return c
}
