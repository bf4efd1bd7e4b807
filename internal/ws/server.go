// Package ws provides the WebSocket chat endpoint.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/asedra/attila/internal/chat"
	"github.com/asedra/attila/internal/config"
	"github.com/asedra/attila/internal/domain"
	"github.com/asedra/attila/internal/hub"
)

// Server handles WebSocket connections for the chat relay.
type Server struct {
	cfg          *config.Config
	hub          *hub.Hub
	orchestrator *chat.Orchestrator
	upgrader     websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, orch *chat.Orchestrator) *Server {
	return &Server{
		cfg:          cfg,
		hub:          h,
		orchestrator: orch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins; there is no authn layer
				return true
			},
		},
	}
}

// RegisterRoutes registers the WebSocket route with the echo server.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/ws/chat", s.HandleChat)
}

// HandleChat handles WebSocket upgrade and connection lifecycle. The read
// loop runs on the handler goroutine; a separate goroutine keeps the
// connection alive with pings.
func (s *Server) HandleChat(c echo.Context) error {
	socket, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ERROR: failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := hub.NewConnection(socket, s.cfg.WSWriteTimeout)
	clientID := s.hub.Register(conn)

	socket.SetReadLimit(s.cfg.WSMaxMessageSize)
	_ = socket.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
	})

	done := make(chan struct{})
	go s.pingLoop(conn, done)

	s.readLoop(c, conn, clientID)

	close(done)
	s.hub.Unregister(clientID)
	_ = conn.Close()
	return nil
}

// readLoop receives frames until the connection fails. Per-message failures
// produce error envelopes and keep the connection; only read errors end it.
func (s *Server) readLoop(c echo.Context, conn *hub.Connection, clientID string) {
	ctx := c.Request().Context()

	for {
		_, data, err := conn.Socket().ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WARN: WebSocket read error: %v", err)
			}
			return
		}
		_ = conn.Socket().SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))

		var frame domain.ChatFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.sendError(clientID, "", "invalid JSON message")
			continue
		}
		if frame.Message == "" {
			s.sendError(clientID, frame.SessionID, "message is required")
			continue
		}

		envelope := s.orchestrator.HandleMessage(ctx, frame.Message, frame.Functions, frame.SessionID)
		if err := s.hub.SendTo(clientID, envelope); err != nil {
			return
		}
	}
}

// pingLoop keeps the connection alive until the read loop ends.
func (s *Server) pingLoop(conn *hub.Connection, done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.WSPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}

// sendError delivers an error envelope without closing the connection.
func (s *Server) sendError(clientID, sessionID, message string) {
	envelope := &domain.Envelope{
		ID:        uuid.New().String(),
		Type:      "ai",
		Content:   "System Error: " + message,
		Timestamp: time.Now().Format(time.RFC3339),
		Error:     true,
		SessionID: sessionID,
	}
	if err := s.hub.SendTo(clientID, envelope); err != nil {
		log.Printf("WARN: failed to send error envelope: %v", err)
	}
}
