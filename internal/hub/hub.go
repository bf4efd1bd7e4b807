// Package hub provides connection management for WebSocket clients.
package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Channel is a live duplex channel to one client. *Connection implements it
// over a WebSocket; tests substitute fakes.
type Channel interface {
	WriteText(data []byte) error
	Close() error
}

// Hub maps generated client IDs to live channels. It is the only owner of a
// channel for the lifetime of the connection.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// New creates a new Hub.
func New() *Hub {
	return &Hub{
		channels: make(map[string]Channel),
	}
}

// Register stores the channel under a fresh client ID and returns the ID.
func (h *Hub) Register(ch Channel) string {
	clientID := uuid.New().String()
	h.mu.Lock()
	h.channels[clientID] = ch
	h.mu.Unlock()
	log.Printf("Client %s connected", clientID)
	return clientID
}

// Unregister removes a client. Safe to call when already absent.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	_, ok := h.channels[clientID]
	delete(h.channels, clientID)
	h.mu.Unlock()
	if ok {
		log.Printf("Client %s disconnected", clientID)
	}
}

// SendTo serializes the envelope and writes it to one client. A write failure
// is treated as a disconnect: the connection is unregistered, not retried.
func (h *Hub) SendTo(clientID string, envelope interface{}) error {
	h.mu.RLock()
	ch, ok := h.channels[clientID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if err := ch.WriteText(data); err != nil {
		log.Printf("WARN: write to client %s failed, dropping connection: %v", clientID, err)
		h.Unregister(clientID)
		return err
	}
	return nil
}

// Broadcast sends the envelope to every registered client. A failure on one
// connection unregisters only that connection and the send continues with the
// rest.
func (h *Hub) Broadcast(envelope interface{}) {
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("ERROR: failed to marshal broadcast envelope: %v", err)
		return
	}

	h.mu.RLock()
	targets := make(map[string]Channel, len(h.channels))
	for id, ch := range h.channels {
		targets[id] = ch
	}
	h.mu.RUnlock()

	for id, ch := range targets {
		if err := ch.WriteText(data); err != nil {
			log.Printf("WARN: broadcast to client %s failed, dropping connection: %v", id, err)
			h.Unregister(id)
		}
	}
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// Connection wraps a WebSocket with write locking so the read loop and
// out-of-band sends do not interleave frames.
type Connection struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

// NewConnection wraps an upgraded WebSocket.
func NewConnection(ws *websocket.Conn, writeTimeout time.Duration) *Connection {
	return &Connection{ws: ws, writeTimeout: writeTimeout}
}

// WriteText writes a text frame with the configured deadline.
func (c *Connection) WriteText(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Ping writes a ping control frame.
func (c *Connection) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.ws.Close()
}

// Socket exposes the underlying connection for the read loop.
func (c *Connection) Socket() *websocket.Conn {
	return c.ws
}
