package domain

import "time"

// Answer is the output of the answer generator.
type Answer struct {
	Text           string
	Confidence     float64
	ConversationID string
}

// ChatMetadata describes how an answer was produced.
type ChatMetadata struct {
	HasContext bool `json:"has_context" yaml:"has_context"`
}

// ChatResult is the envelope returned for a question.
// Sources is nil when no context was retrieved.
type ChatResult struct {
	Answer         string       `json:"answer" yaml:"answer"`
	Sources        []Source     `json:"sources" yaml:"sources"`
	Confidence     float64      `json:"confidence" yaml:"confidence"`
	ConversationID string       `json:"conversation_id" yaml:"conversation_id"`
	Metadata       ChatMetadata `json:"metadata" yaml:"metadata"`
}

// Turn is one recorded question and answer within a conversation.
type Turn struct {
	ConversationID string    `json:"conversation_id" yaml:"conversation_id"`
	Question       string    `json:"question" yaml:"question"`
	Answer         string    `json:"answer" yaml:"answer"`
	Sources        []Source  `json:"sources" yaml:"sources"`
	Confidence     float64   `json:"confidence" yaml:"confidence"`
	HasContext     bool      `json:"has_context" yaml:"has_context"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}
