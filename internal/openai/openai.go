// Package openai provides the completion provider backed by the OpenAI
// chat-completions API.
package openai

import (
	"context"

	"github.com/asedra/attila/internal/domain"
)

// DefaultSystemPrompt frames the assistant for project management work.
const DefaultSystemPrompt = "You are Attila, a helpful AI assistant for project management, idea development, and task automation. You can help with Jira tickets, Confluence documentation, and idea analysis."

// ChatMessage is one role-tagged turn sent to the completions API.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResult is the outcome of a completion request. Upstream failures
// are reported through Success/Error, never as a Go error.
type CompletionResult struct {
	Success      bool          `json:"success"`
	Content      string        `json:"content,omitempty"`
	Model        string        `json:"model,omitempty"`
	Usage        *domain.Usage `json:"usage,omitempty"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// TitleResult is the outcome of a title generation request. On failure Title
// still carries a usable fallback.
type TitleResult struct {
	Success bool          `json:"success"`
	Title   string        `json:"title"`
	Usage   *domain.Usage `json:"usage,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// ModelInfo describes a selectable model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Provider defines the completion provider consumed by the orchestrator and
// the API layer.
type Provider interface {
	// IsConfigured reports whether an API key is present.
	IsConfigured() bool

	// Complete requests a chat completion for the given messages.
	Complete(ctx context.Context, messages []ChatMessage) *CompletionResult

	// GenerateTitle produces a short session title from the first message.
	GenerateTitle(ctx context.Context, firstMessage string) *TitleResult

	// SystemPrompt returns the prompt used to frame completions.
	SystemPrompt() string
}

// Ensure implementations satisfy the interface.
var (
	_ Provider = (*Client)(nil)
	_ Provider = (*MockProvider)(nil)
)
