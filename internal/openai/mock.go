package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/asedra/attila/internal/domain"
)

// MockProvider is a scriptable Provider for tests.
type MockProvider struct {
	Configured bool

	// CompleteFunc overrides Complete when set.
	CompleteFunc func(messages []ChatMessage) *CompletionResult

	// TitleFunc overrides GenerateTitle when set.
	TitleFunc func(firstMessage string) *TitleResult

	// Calls records the message lists passed to Complete.
	Calls [][]ChatMessage
}

// NewMockProvider creates a configured mock that echoes the last message.
func NewMockProvider() *MockProvider {
	return &MockProvider{Configured: true}
}

// IsConfigured reports the scripted configuration state.
func (m *MockProvider) IsConfigured() bool {
	return m.Configured
}

// Complete returns the scripted result or an echo response.
func (m *MockProvider) Complete(ctx context.Context, messages []ChatMessage) *CompletionResult {
	m.Calls = append(m.Calls, messages)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(messages)
	}

	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	return &CompletionResult{
		Success: true,
		Content: fmt.Sprintf("mock reply to: %s", last),
		Model:   "mock-model",
		Usage:   &domain.Usage{PromptTokens: len(last) / 4, CompletionTokens: 8, TotalTokens: len(last)/4 + 8},
	}
}

// SystemPrompt returns the default prompt.
func (m *MockProvider) SystemPrompt() string {
	return DefaultSystemPrompt
}

// GenerateTitle returns the scripted result or a deterministic title.
func (m *MockProvider) GenerateTitle(ctx context.Context, firstMessage string) *TitleResult {
	if m.TitleFunc != nil {
		return m.TitleFunc(firstMessage)
	}
	return &TitleResult{
		Success: true,
		Title:   fmt.Sprintf("mock-title-%d", time.Now().UnixNano()%1000),
		Usage:   &domain.Usage{TotalTokens: 10},
	}
}
