package models

import "time"

// ChatResponse is the full result of one chat turn.
type ChatResponse struct {
	Query        string         `json:"query"`
	Response     string         `json:"response"`
	Intent       Intent         `json:"intent"`
	ContextUsed  []SearchResult `json:"context_used"`
	SourcesCount int            `json:"sources_count"`
	HasContext   bool           `json:"has_context"`
	Timestamp    time.Time      `json:"timestamp"`
}

// ConversationTurn is one append-only entry in the conversation log.
type ConversationTurn struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "bot"
	Text      string    `json:"text"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
