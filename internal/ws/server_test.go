package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asedra/attila/internal/chat"
	"github.com/asedra/attila/internal/config"
	"github.com/asedra/attila/internal/domain"
	"github.com/asedra/attila/internal/hub"
	"github.com/asedra/attila/internal/openai"
	"github.com/asedra/attila/internal/registry"
)

func newTestServer(t *testing.T, provider openai.Provider) (*httptest.Server, *hub.Hub) {
	t.Helper()

	cfg := &config.Config{
		WSReadTimeout:    5 * time.Second,
		WSWriteTimeout:   5 * time.Second,
		WSPingInterval:   time.Minute,
		WSMaxMessageSize: 65536,
	}
	h := hub.New()
	orch := chat.NewOrchestrator(registry.New(), provider)
	srv := NewServer(cfg, h, orch)

	e := echo.New()
	srv.RegisterRoutes(e)

	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return ts, h
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) domain.Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env domain.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestChatRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t, openai.NewMockProvider())
	conn := dial(t, ts)

	frame := domain.ChatFrame{Message: "hello", SessionID: "s1"}
	require.NoError(t, conn.WriteJSON(frame))

	env := readEnvelope(t, conn)
	assert.Equal(t, "ai", env.Type)
	assert.Equal(t, "mock reply to: hello", env.Content)
	assert.Equal(t, "s1", env.SessionID)
	assert.False(t, env.Error)
}

func TestInvalidFrameKeepsConnection(t *testing.T) {
	ts, _ := newTestServer(t, openai.NewMockProvider())
	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	env := readEnvelope(t, conn)
	assert.True(t, env.Error)
	assert.Contains(t, env.Content, "System Error")

	// Connection survives the bad frame.
	require.NoError(t, conn.WriteJSON(domain.ChatFrame{Message: "still here"}))
	env = readEnvelope(t, conn)
	assert.Equal(t, "mock reply to: still here", env.Content)
}

func TestEmptyMessageRejected(t *testing.T) {
	ts, _ := newTestServer(t, openai.NewMockProvider())
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(domain.ChatFrame{SessionID: "s1"}))

	env := readEnvelope(t, conn)
	assert.True(t, env.Error)
	assert.Contains(t, env.Content, "message is required")
	assert.Equal(t, "s1", env.SessionID)
}

func TestDisconnectUnregisters(t *testing.T) {
	ts, h := newTestServer(t, openai.NewMockProvider())
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(domain.ChatFrame{Message: "hi"}))
	readEnvelope(t, conn)
	assert.Equal(t, 1, h.Count())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
