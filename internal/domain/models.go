// Package domain defines the core domain models for the assistant backend.
package domain

import (
	"encoding/json"
	"time"
)

// Recommended message roles. The role field is an open string tag, not a
// closed enum: new roles may appear without a schema change.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleError     = "error"
)

// Session represents a named, timestamped container for an ordered sequence
// of messages.
type Session struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	IsActive     bool            `json:"is_active"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	MessageCount int             `json:"message_count"`
}

// Message represents a single role-tagged message belonging to exactly one
// session. Messages are immutable once created except for deletion.
type Message struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Content   string          `json:"content"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// SessionStats summarizes the messages of a session. Counts come from COUNT
// queries, not from materializing the message list.
type SessionStats struct {
	SessionID         string `json:"session_id"`
	Title             string `json:"title"`
	TotalMessages     int    `json:"total_messages"`
	UserMessages      int    `json:"user_messages"`
	AssistantMessages int    `json:"assistant_messages"`
	CreatedAt         string `json:"created_at,omitempty"`
	UpdatedAt         string `json:"updated_at,omitempty"`
}

// Function represents an invocable capability in the catalog.
type Function struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Icon           string          `json:"icon"`
	Category       string          `json:"category"`
	Parameters     json.RawMessage `json:"parameters"`
	IsEnabled      bool            `json:"isEnabled"`
	IsSystem       bool            `json:"isSystem"`
	Implementation string          `json:"implementation,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// Turn is one role-tagged entry in an in-memory transcript.
type Turn struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Extra     json.RawMessage `json:"extra,omitempty"`
}

// Usage reports token usage for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Envelope is the structured response returned for every processed chat
// message, over WebSocket and from the orchestrator.
type Envelope struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Model     string `json:"model,omitempty"`
	Usage     *Usage `json:"usage,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Error     bool   `json:"error,omitempty"`
	Fallback  bool   `json:"fallback,omitempty"`
}

// ChatFrame is an inbound WebSocket frame.
type ChatFrame struct {
	Message   string   `json:"message"`
	Functions []string `json:"functions,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
}
