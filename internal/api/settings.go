package api

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asedra/attila/internal/openai"
)

// TestConnectionRequest is the request to probe the OpenAI API.
type TestConnectionRequest struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model,omitempty"`
}

// SaveOpenAISettings saves provider settings and persists them to the
// settings file.
// POST /api/settings/openai
func (h *Handler) SaveOpenAISettings(c echo.Context) error {
	var req openai.Settings
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}

	if err := h.settings.Configure(req); err != nil {
		log.Printf("ERROR: failed to save settings: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to save settings")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Settings saved successfully",
	})
}

// TestOpenAIConnection probes the API with the supplied credentials without
// saving them.
// POST /api/settings/test-openai
func (h *Handler) TestOpenAIConnection(c echo.Context) error {
	ctx := c.Request().Context()

	var req TestConnectionRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.APIKey == "" {
		return detail(c, http.StatusBadRequest, "apiKey is required")
	}
	if req.Model == "" {
		req.Model = "gpt-3.5-turbo"
	}

	return c.JSON(http.StatusOK, h.settings.TestConnection(ctx, req.APIKey, req.Model))
}

// OpenAIModels lists the selectable models.
// GET /api/settings/openai/models
func (h *Handler) OpenAIModels(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"models": h.settings.AvailableModels(),
	})
}

// OpenAIStatus reports the current non-secret provider settings.
// GET /api/settings/openai/status
func (h *Handler) OpenAIStatus(c echo.Context) error {
	configured, model, temperature, maxTokens := h.settings.Status()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"configured":  configured,
		"model":       model,
		"temperature": temperature,
		"max_tokens":  maxTokens,
	})
}
