package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asedra/attila/internal/domain"
)

// MessageCreateRequest is the request to append a message to a session.
type MessageCreateRequest struct {
	Content     string          `json:"content"`
	MessageType string          `json:"message_type"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// AddMessage appends a message to a session.
// POST /api/chat/sessions/:session_id/messages
func (h *Handler) AddMessage(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	var req MessageCreateRequest
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return detail(c, http.StatusBadRequest, "content is required")
	}
	if req.MessageType == "" {
		req.MessageType = domain.RoleUser
	}

	message, err := h.store.AddMessage(ctx, sessionID, req.Content, req.MessageType, req.Metadata)
	if err != nil {
		log.Printf("ERROR: failed to add message: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to add message")
	}
	if message == nil {
		return detail(c, http.StatusNotFound, "Session not found")
	}
	return c.JSON(http.StatusCreated, message)
}

// ListMessages lists a session's messages in chronological order.
// GET /api/chat/sessions/:session_id/messages
func (h *Handler) ListMessages(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	limit := queryInt(c, "limit", 100)
	offset := queryInt(c, "offset", 0)

	messages, err := h.store.ListMessages(ctx, sessionID, limit, offset)
	if err != nil {
		log.Printf("ERROR: failed to list messages: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to list messages")
	}
	return c.JSON(http.StatusOK, messages)
}

// RecentMessages returns the last messages of a session in chronological
// order.
// GET /api/chat/sessions/:session_id/messages/recent
func (h *Handler) RecentMessages(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	limit := queryInt(c, "limit", 10)

	messages, err := h.store.RecentMessages(ctx, sessionID, limit)
	if err != nil {
		log.Printf("ERROR: failed to get recent messages: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to get recent messages")
	}
	return c.JSON(http.StatusOK, messages)
}

// DeleteMessage removes a single message.
// DELETE /api/chat/messages/:message_id
func (h *Handler) DeleteMessage(c echo.Context) error {
	ctx := c.Request().Context()
	messageID := c.Param("message_id")

	found, err := h.store.DeleteMessage(ctx, messageID)
	if err != nil {
		log.Printf("ERROR: failed to delete message: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to delete message")
	}
	if !found {
		return detail(c, http.StatusNotFound, "Message not found")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message":    "Message deleted",
		"message_id": messageID,
	})
}

// SearchMessages searches message content, most recent first. An empty
// session_id searches across all sessions.
// GET /api/chat/search
func (h *Handler) SearchMessages(c echo.Context) error {
	ctx := c.Request().Context()

	query := c.QueryParam("query")
	if query == "" {
		return detail(c, http.StatusBadRequest, "query is required")
	}
	sessionID := c.QueryParam("session_id")
	limit := queryInt(c, "limit", 50)

	messages, err := h.store.SearchMessages(ctx, query, sessionID, limit)
	if err != nil {
		log.Printf("ERROR: failed to search messages: %v", err)
		return detail(c, http.StatusInternalServerError, "failed to search messages")
	}
	return c.JSON(http.StatusOK, messages)
}
