package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/asedra/attila/internal/store"
)

// storeSessionUpdate converts the request DTO to store update fields.
func storeSessionUpdate(req SessionUpdateRequest) store.SessionUpdate {
	return store.SessionUpdate{
		Title:       req.Title,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
}

// sessionTitleUpdate builds an update that only changes the title.
func sessionTitleUpdate(title string) store.SessionUpdate {
	return store.SessionUpdate{Title: &title}
}

// SessionCreateRequest is the request to create a chat session.
type SessionCreateRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// SessionUpdateRequest carries optional session fields; absent fields are
// left unchanged.
type SessionUpdateRequest struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// CreateSession creates a new chat session.
// POST /api/chat/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req SessionCreateRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return detail(c, http.StatusBadRequest, "title is required")
	}

	session, err := h.store.CreateSession(ctx, req.Title, req.Description, req.Metadata)
	if err != nil {
		log.Printf("ERROR: failed to create session: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to create session")
	}
	return c.JSON(http.StatusCreated, session)
}

// ListSessions lists sessions, most recently updated first.
// GET /api/chat/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()

	limit := queryInt(c, "limit", 50)
	includeInactive := c.QueryParam("include_inactive") == "true"

	sessions, err := h.store.ListSessions(ctx, limit, includeInactive)
	if err != nil {
		log.Printf("ERROR: failed to list sessions: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to list sessions")
	}
	return c.JSON(http.StatusOK, sessions)
}

// GetSession returns a single session.
// GET /api/chat/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	session, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		log.Printf("ERROR: failed to get session: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to get session")
	}
	if session == nil {
		return detail(c, http.StatusNotFound, "Session not found")
	}
	return c.JSON(http.StatusOK, session)
}

// UpdateSession applies a partial update to a session.
// PUT /api/chat/sessions/:session_id
func (h *Handler) UpdateSession(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	var req SessionUpdateRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}

	session, err := h.store.UpdateSession(ctx, sessionID, storeSessionUpdate(req))
	if err != nil {
		log.Printf("ERROR: failed to update session: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to update session")
	}
	if session == nil {
		return detail(c, http.StatusNotFound, "Session not found")
	}
	return c.JSON(http.StatusOK, session)
}

// DeleteSession deactivates a session, or removes it and its messages when
// permanent=true.
// DELETE /api/chat/sessions/:session_id
func (h *Handler) DeleteSession(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")
	permanent := c.QueryParam("permanent") == "true"

	var (
		found bool
		err   error
	)
	if permanent {
		found, err = h.store.HardDeleteSession(ctx, sessionID)
	} else {
		found, err = h.store.SoftDeleteSession(ctx, sessionID)
	}
	if err != nil {
		log.Printf("ERROR: failed to delete session: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to delete session")
	}
	if !found {
		return detail(c, http.StatusNotFound, "Session not found")
	}

	message := "Session deactivated"
	if permanent {
		message = "Session permanently deleted"
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    message,
		"session_id": sessionID,
	})
}

// SessionStats returns message counts and timestamps for a session.
// GET /api/chat/sessions/:session_id/stats
func (h *Handler) SessionStats(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	stats, err := h.store.SessionStats(ctx, sessionID)
	if err != nil {
		log.Printf("ERROR: failed to get session stats: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to get session stats")
	}
	if stats == nil {
		return detail(c, http.StatusNotFound, "Session not found")
	}
	return c.JSON(http.StatusOK, stats)
}

// TitleRequest is the request to generate a session title.
type TitleRequest struct {
	Message string `json:"message"`
}

// GenerateTitle asks the provider for a short title and persists it on the
// session. A provider failure still persists the fallback title.
// POST /api/chat/sessions/:session_id/generate-title
func (h *Handler) GenerateTitle(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	var req TitleRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return detail(c, http.StatusBadRequest, "message is required")
	}

	result := h.provider.GenerateTitle(ctx, req.Message)

	session, err := h.store.UpdateSession(ctx, sessionID, sessionTitleUpdate(result.Title))
	if err != nil {
		log.Printf("ERROR: failed to persist session title: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to update session title")
	}
	if session == nil {
		return detail(c, http.StatusNotFound, "Session not found")
	}

	resp := map[string]interface{}{
		"success": result.Success,
		"title":   result.Title,
	}
	if result.Usage != nil {
		resp["usage"] = result.Usage
	}
	if !result.Success {
		resp["error"] = result.Error
	}
	return c.JSON(http.StatusOK, resp)
}

// queryInt parses an integer query parameter with a default.
func queryInt(c echo.Context, name string, defaultVal int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return v
}
