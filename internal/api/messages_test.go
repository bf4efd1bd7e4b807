package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asedra/attila/internal/domain"
)

func TestAddMessageToUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	var resp map[string]string
	rec := env.do(t, http.MethodPost, "/api/chat/sessions/missing/messages",
		MessageCreateRequest{Content: "hi", MessageType: "user"}, &resp)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", resp["detail"])
}

func TestAddMessageRequiresContent(t *testing.T) {
	env := newTestEnv(t)
	created := createSession(t, env, "Chat")

	rec := env.do(t, http.MethodPost, "/api/chat/sessions/"+created.ID+"/messages",
		MessageCreateRequest{MessageType: "user"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessageOrderingAndPagination(t *testing.T) {
	env := newTestEnv(t)
	created := createSession(t, env, "Chat")

	for i := 0; i < 5; i++ {
		var msg domain.Message
		rec := env.do(t, http.MethodPost, "/api/chat/sessions/"+created.ID+"/messages",
			MessageCreateRequest{Content: fmt.Sprintf("msg-%d", i), MessageType: "user"}, &msg)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	var messages []domain.Message
	rec := env.do(t, http.MethodGet, "/api/chat/sessions/"+created.ID+"/messages", nil, &messages)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, messages, 5)
	assert.Equal(t, "msg-0", messages[0].Content)
	assert.Equal(t, "msg-4", messages[4].Content)

	env.do(t, http.MethodGet, "/api/chat/sessions/"+created.ID+"/messages?limit=2&offset=1", nil, &messages)
	require.Len(t, messages, 2)
	assert.Equal(t, "msg-1", messages[0].Content)

	// recent returns the tail in chronological order
	env.do(t, http.MethodGet, "/api/chat/sessions/"+created.ID+"/messages/recent?limit=3", nil, &messages)
	require.Len(t, messages, 3)
	assert.Equal(t, "msg-2", messages[0].Content)
	assert.Equal(t, "msg-4", messages[2].Content)
}

func TestDeleteMessageEndpoint(t *testing.T) {
	env := newTestEnv(t)
	created := createSession(t, env, "Chat")

	var msg domain.Message
	env.do(t, http.MethodPost, "/api/chat/sessions/"+created.ID+"/messages",
		MessageCreateRequest{Content: "to remove", MessageType: "user"}, &msg)

	rec := env.do(t, http.MethodDelete, "/api/chat/messages/"+msg.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/chat/messages/"+msg.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchMessagesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	created := createSession(t, env, "Chat")

	env.do(t, http.MethodPost, "/api/chat/sessions/"+created.ID+"/messages",
		MessageCreateRequest{Content: "deploy the release", MessageType: "user"}, nil)
	env.do(t, http.MethodPost, "/api/chat/sessions/"+created.ID+"/messages",
		MessageCreateRequest{Content: "unrelated note", MessageType: "user"}, nil)

	var messages []domain.Message
	rec := env.do(t, http.MethodGet, "/api/chat/search?query=release", nil, &messages)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, messages, 1)
	assert.Equal(t, "deploy the release", messages[0].Content)

	rec = env.do(t, http.MethodGet, "/api/chat/search", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
