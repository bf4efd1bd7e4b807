// Package chat orchestrates inbound chat messages: transcript bookkeeping,
// completion requests, and response envelopes.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asedra/attila/internal/domain"
	"github.com/asedra/attila/internal/openai"
	"github.com/asedra/attila/internal/registry"
)

// contextWindow caps how many transcript turns are sent as LLM context.
const contextWindow = 10

// Orchestrator processes one chat message end to end. This path is purely
// in-memory; the HTTP session endpoints persist through the store instead.
type Orchestrator struct {
	registry *registry.Registry
	provider openai.Provider
}

// NewOrchestrator creates an orchestrator over the given transcript registry
// and completion provider.
func NewOrchestrator(reg *registry.Registry, provider openai.Provider) *Orchestrator {
	return &Orchestrator{
		registry: reg,
		provider: provider,
	}
}

// HandleMessage appends the user turn, obtains a reply when the provider is
// configured, appends the assistant turn on success, and returns the response
// envelope. Provider failures never leave the transcript with a dangling
// assistant turn.
func (o *Orchestrator) HandleMessage(ctx context.Context, content string, activeFunctions []string, sessionID string) (envelope *domain.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: message handling panicked: %v", r)
			envelope = &domain.Envelope{
				ID:        uuid.New().String(),
				Type:      "ai",
				Content:   fmt.Sprintf("System Error: %v", r),
				Timestamp: time.Now().Format(time.RFC3339),
				Error:     true,
				SessionID: sessionID,
			}
		}
	}()

	var extra json.RawMessage
	if len(activeFunctions) > 0 {
		extra, _ = json.Marshal(map[string]interface{}{"functions": activeFunctions})
	}
	o.registry.Append(sessionID, domain.RoleUser, content, extra)

	if !o.provider.IsConfigured() {
		return &domain.Envelope{
			ID:        uuid.New().String(),
			Type:      "ai",
			Content:   o.fallbackResponse(activeFunctions),
			Timestamp: time.Now().Format(time.RFC3339),
			Fallback:  true,
			SessionID: sessionID,
		}
	}

	result := o.provider.Complete(ctx, o.buildContext(sessionID, activeFunctions))
	if !result.Success {
		return &domain.Envelope{
			ID:        uuid.New().String(),
			Type:      "ai",
			Content:   fmt.Sprintf("AI Error: %s", result.Error),
			Timestamp: time.Now().Format(time.RFC3339),
			Error:     true,
			SessionID: sessionID,
		}
	}

	o.registry.Append(sessionID, domain.RoleAssistant, result.Content, nil)

	return &domain.Envelope{
		ID:        uuid.New().String(),
		Type:      "ai",
		Content:   result.Content,
		Timestamp: time.Now().Format(time.RFC3339),
		Model:     result.Model,
		Usage:     result.Usage,
		SessionID: sessionID,
	}
}

// buildContext assembles the bounded completion context: system prompt, the
// last contextWindow transcript turns plus the current user turn (already
// appended), and a note listing the active function tags.
func (o *Orchestrator) buildContext(sessionID string, activeFunctions []string) []openai.ChatMessage {
	messages := []openai.ChatMessage{
		{Role: domain.RoleSystem, Content: o.provider.SystemPrompt()},
	}
	for _, turn := range o.registry.RecentWindow(sessionID, contextWindow+1) {
		messages = append(messages, openai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}

	if len(activeFunctions) > 0 {
		note := "\n\nActive functions: " + strings.Join(activeFunctions, ", ")
		last := len(messages) - 1
		if messages[last].Role == domain.RoleUser {
			messages[last].Content += note
		} else {
			messages = append(messages, openai.ChatMessage{Role: domain.RoleUser, Content: note})
		}
	}
	return messages
}

var genericFallbacks = []string{
	"OpenAI API not configured.\n\nTo get real AI responses, please:\n1. Open Settings\n2. Add your OpenAI API key\n3. Select your preferred model\n\nGet your API key from the OpenAI dashboard.",
	"Configure OpenAI to unlock AI responses.\n\nI'm ready to help you with:\n- Project management\n- Idea development\n- Jira ticket creation\n- Confluence documentation\n\nJust add your OpenAI API key in Settings to get started!",
	"Setup required.\n\nQuick setup:\n1. Get an API key from OpenAI\n2. Open Settings\n3. Paste your key and save\n\nThen we can have real conversations!",
}

const ideaFallback = "Idea creation ready.\n\nI see you want to create ideas. Once you configure OpenAI in Settings, I can help you:\n- Brainstorm creative solutions\n- Structure your thoughts\n- Generate detailed project concepts\n\nAdd your API key to unlock this feature!"

const jiraFallback = "Jira integration available.\n\nTo create Jira tickets with AI assistance:\n1. Configure the OpenAI API in Settings\n2. Set up your Jira credentials\n3. Let me help generate detailed tickets!\n\nI can create comprehensive descriptions, acceptance criteria, and more."

// fallbackResponse picks guidance for the unconfigured-provider case:
// function-specific when an active tag matches, otherwise one of the generic
// setup messages.
func (o *Orchestrator) fallbackResponse(activeFunctions []string) string {
	for _, name := range activeFunctions {
		switch {
		case strings.Contains(name, "Idea"):
			return ideaFallback
		case strings.Contains(name, "Jira"):
			return jiraFallback
		}
	}
	return genericFallbacks[rand.Intn(len(genericFallbacks))]
}

// TranscriptLen reports how many turns a session's transcript holds.
func (o *Orchestrator) TranscriptLen(sessionID string) int {
	return o.registry.Len(sessionID)
}
