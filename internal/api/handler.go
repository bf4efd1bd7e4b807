// Package api provides the HTTP handlers for the backend.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asedra/attila/internal/atlassian"
	"github.com/asedra/attila/internal/functions"
	"github.com/asedra/attila/internal/hub"
	"github.com/asedra/attila/internal/openai"
	"github.com/asedra/attila/internal/store"
)

// Handler handles HTTP requests.
type Handler struct {
	store      store.Store
	provider   openai.Provider
	settings   *openai.Client
	functions  *functions.Service
	hub        *hub.Hub
	jira       atlassian.JiraClient
	confluence atlassian.ConfluenceClient
}

// NewHandler creates a new handler. provider and settings normally point at
// the same OpenAI client; tests substitute a mock provider.
func NewHandler(st store.Store, provider openai.Provider, settings *openai.Client, fns *functions.Service, h *hub.Hub, jira atlassian.JiraClient, confluence atlassian.ConfluenceClient) *Handler {
	return &Handler{
		store:      st,
		provider:   provider,
		settings:   settings,
		functions:  fns,
		hub:        h,
		jira:       jira,
		confluence: confluence,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Chat API
	chat := e.Group("/api/chat")
	chat.POST("/sessions", h.CreateSession)
	chat.GET("/sessions", h.ListSessions)
	chat.GET("/sessions/:session_id", h.GetSession)
	chat.PUT("/sessions/:session_id", h.UpdateSession)
	chat.DELETE("/sessions/:session_id", h.DeleteSession)
	chat.POST("/sessions/:session_id/messages", h.AddMessage)
	chat.GET("/sessions/:session_id/messages", h.ListMessages)
	chat.GET("/sessions/:session_id/messages/recent", h.RecentMessages)
	chat.GET("/sessions/:session_id/stats", h.SessionStats)
	chat.POST("/sessions/:session_id/generate-title", h.GenerateTitle)
	chat.DELETE("/messages/:message_id", h.DeleteMessage)
	chat.GET("/search", h.SearchMessages)

	// Function catalog API
	fns := e.Group("/api/functions")
	fns.GET("", h.ListFunctions)
	fns.GET("/categories", h.FunctionCategories)
	fns.GET("/category/:category", h.FunctionsByCategory)
	fns.GET("/:function_id", h.GetFunction)
	fns.POST("", h.CreateFunction)
	fns.PUT("/:function_id", h.UpdateFunction)
	fns.POST("/:function_id/toggle", h.ToggleFunction)
	fns.DELETE("/:function_id", h.DeleteFunction)
	fns.POST("/:function_id/execute", h.ExecuteFunction)

	// Settings API
	settings := e.Group("/api/settings")
	settings.POST("/openai", h.SaveOpenAISettings)
	settings.POST("/test-openai", h.TestOpenAIConnection)
	settings.GET("/openai/models", h.OpenAIModels)
	settings.GET("/openai/status", h.OpenAIStatus)

	e.GET("/", h.Root)
	e.GET("/api/health", h.Health)
}

// detail writes the uniform error envelope.
func detail(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]string{"detail": message})
}

// Root returns the status banner.
// GET /
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Attila API is running",
		"version": "1.0.0",
	})
}

// Health returns health status for the backing services.
// GET /api/health
func (h *Handler) Health(c echo.Context) error {
	openaiStatus := "not_configured"
	if h.provider.IsConfigured() {
		openaiStatus = "configured"
	}
	jiraStatus := "not_configured"
	if h.jira.Enabled() {
		jiraStatus = "configured"
	}
	confluenceStatus := "not_configured"
	if h.confluence.Enabled() {
		confluenceStatus = "configured"
	}
	clients := 0
	if h.hub != nil {
		clients = h.hub.Count()
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"services": map[string]interface{}{
			"database":          "connected",
			"openai":            openaiStatus,
			"jira":              jiraStatus,
			"confluence":        confluenceStatus,
			"websocket_clients": clients,
		},
	})
}
