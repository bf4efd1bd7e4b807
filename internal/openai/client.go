package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/asedra/attila/internal/domain"
)

const defaultBaseURL = "https://api.openai.com"

// Settings are the runtime-mutable provider settings, persisted to the
// settings file so they survive restarts.
type Settings struct {
	OpenAIAPIKey  string  `json:"openaiApiKey,omitempty"`
	SelectedModel string  `json:"selectedModel,omitempty"`
	Temperature   float64 `json:"temperature,omitempty"`
	MaxTokens     int     `json:"maxTokens,omitempty"`
	SystemPrompt  string  `json:"systemPrompt,omitempty"`
}

// Client talks to an OpenAI-compatible chat-completions API.
type Client struct {
	baseURL      string
	settingsPath string
	httpClient   *http.Client

	mu           sync.RWMutex
	apiKey       string
	model        string
	temperature  float64
	maxTokens    int
	systemPrompt string
}

// NewClient creates a client, loading settings from the settings file first
// and falling back to the environment API key.
func NewClient(settingsPath, envAPIKey string, timeout time.Duration) *Client {
	c := &Client{
		baseURL:      defaultBaseURL,
		settingsPath: settingsPath,
		httpClient:   &http.Client{Timeout: timeout},
		model:        "gpt-3.5-turbo",
		temperature:  0.7,
		maxTokens:    2000,
		systemPrompt: DefaultSystemPrompt,
	}

	c.loadFromFile()
	if c.apiKey == "" && envAPIKey != "" {
		c.apiKey = envAPIKey
		log.Printf("OpenAI client initialized from environment")
	}
	return c
}

func (c *Client) loadFromFile() {
	data, err := os.ReadFile(c.settingsPath)
	if err != nil {
		return
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		log.Printf("WARN: failed to parse settings file: %v", err)
		return
	}
	c.apply(s)
	if c.apiKey != "" {
		log.Printf("OpenAI client initialized from saved config")
	}
}

func (c *Client) apply(s Settings) {
	if s.OpenAIAPIKey != "" {
		c.apiKey = s.OpenAIAPIKey
	}
	if s.SelectedModel != "" {
		c.model = s.SelectedModel
	}
	if s.Temperature != 0 {
		c.temperature = s.Temperature
	}
	if s.MaxTokens != 0 {
		c.maxTokens = s.MaxTokens
	}
	if s.SystemPrompt != "" {
		c.systemPrompt = s.SystemPrompt
	}
}

// Configure applies settings and persists them to the settings file.
func (c *Client) Configure(s Settings) error {
	c.mu.Lock()
	c.apply(s)
	saved := Settings{
		OpenAIAPIKey:  c.apiKey,
		SelectedModel: c.model,
		Temperature:   c.temperature,
		MaxTokens:     c.maxTokens,
		SystemPrompt:  c.systemPrompt,
	}
	c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.settingsPath), 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(c.settingsPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	log.Printf("OpenAI configured with model: %s", saved.SelectedModel)
	return nil
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != ""
}

// Status reports the current non-secret settings.
func (c *Client) Status() (configured bool, model string, temperature float64, maxTokens int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != "", c.model, c.temperature, c.maxTokens
}

// SystemPrompt returns the configured system prompt.
func (c *Client) SystemPrompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.systemPrompt
}

// chatCompletionRequest is the OpenAI chat completion request.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

// chatCompletionResponse is the OpenAI chat completion response.
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int          `json:"index"`
		Message      *ChatMessage `json:"message,omitempty"`
		FinishReason string       `json:"finish_reason,omitempty"`
	} `json:"choices"`
	Usage *domain.Usage `json:"usage,omitempty"`
}

// errorResponse is the OpenAI API error envelope.
type errorResponse struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

// createChatCompletion sends a chat completion request.
func (c *Client) createChatCompletion(ctx context.Context, apiKey string, req *chatCompletionRequest) (*chatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return nil, fmt.Errorf("OpenAI API error [%d]: %s (type: %s)", resp.StatusCode, errResp.Error.Message, errResp.Error.Type)
		}
		return nil, fmt.Errorf("OpenAI API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// Complete requests a chat completion for the given messages.
func (c *Client) Complete(ctx context.Context, messages []ChatMessage) *CompletionResult {
	c.mu.RLock()
	apiKey, model, temperature, maxTokens := c.apiKey, c.model, c.temperature, c.maxTokens
	c.mu.RUnlock()

	if apiKey == "" {
		return &CompletionResult{
			Success: false,
			Error:   "OpenAI client not configured. Please add your API key in settings.",
		}
	}

	resp, err := c.createChatCompletion(ctx, apiKey, &chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		log.Printf("ERROR: completion failed: %v", err)
		return &CompletionResult{
			Success: false,
			Error:   fmt.Sprintf("Failed to generate response: %v", err),
		}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return &CompletionResult{Success: false, Error: "empty completion response"}
	}

	return &CompletionResult{
		Success:      true,
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		Usage:        resp.Usage,
		FinishReason: resp.Choices[0].FinishReason,
	}
}

const titlePromptTemplate = `Based on the following user message, generate a short, descriptive title for this chat conversation. The title should be:
- Maximum 5-6 words
- Descriptive but concise
- No quotes or special characters
- Capture the main topic or intent

User message: "%s"

Please respond with only the title, nothing else.`

// GenerateTitle produces a short session title from the first message. On
// failure the result carries a truncated-message fallback title.
func (c *Client) GenerateTitle(ctx context.Context, firstMessage string) *TitleResult {
	c.mu.RLock()
	apiKey := c.apiKey
	c.mu.RUnlock()

	fallback := FallbackTitle(firstMessage)
	if apiKey == "" {
		return &TitleResult{
			Success: false,
			Title:   fallback,
			Error:   "OpenAI client not configured. Please add your API key in settings.",
		}
	}

	temperature := 0.3
	maxTokens := 20
	resp, err := c.createChatCompletion(ctx, apiKey, &chatCompletionRequest{
		// Faster model is enough for title generation
		Model:       "gpt-3.5-turbo",
		Messages:    []ChatMessage{{Role: domain.RoleUser, Content: fmt.Sprintf(titlePromptTemplate, firstMessage)}},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		log.Printf("ERROR: title generation failed: %v", err)
		return &TitleResult{
			Success: false,
			Title:   fallback,
			Error:   fmt.Sprintf("Failed to generate title: %v", err),
		}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return &TitleResult{Success: false, Title: fallback, Error: "empty completion response"}
	}

	title := strings.TrimSpace(resp.Choices[0].Message.Content)
	title = strings.Trim(title, `"'`)
	return &TitleResult{Success: true, Title: title, Usage: resp.Usage}
}

// FallbackTitle derives a title from the start of a message.
func FallbackTitle(message string) string {
	runes := []rune(message)
	if len(runes) > 20 {
		return "Chat " + string(runes[:20]) + "..."
	}
	return "Chat " + message
}

// TestConnection probes the API with the given credentials.
func (c *Client) TestConnection(ctx context.Context, apiKey, model string) map[string]interface{} {
	temperature := 0.1
	maxTokens := 10
	resp, err := c.createChatCompletion(ctx, apiKey, &chatCompletionRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: domain.RoleSystem, Content: "You are a helpful assistant."},
			{Role: domain.RoleUser, Content: "Hello"},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return map[string]interface{}{"success": false, "error": err.Error()}
	}
	return map[string]interface{}{
		"success":    true,
		"message":    "Connection successful",
		"model_used": resp.Model,
		"usage":      resp.Usage,
	}
}

// AvailableModels lists the selectable models.
func (c *Client) AvailableModels() []ModelInfo {
	return []ModelInfo{
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Description: "Fast and efficient for most tasks"},
		{ID: "gpt-4", Name: "GPT-4", Description: "More capable, better reasoning"},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Description: "Latest GPT-4 with improved performance"},
		{ID: "gpt-4o", Name: "GPT-4o", Description: "Multimodal capabilities"},
		{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Description: "Faster and more affordable"},
	}
}
