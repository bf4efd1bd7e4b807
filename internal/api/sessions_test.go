package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asedra/attila/internal/domain"
	"github.com/asedra/attila/internal/openai"
)

func createSession(t *testing.T, env *testEnv, title string) domain.Session {
	t.Helper()
	var session domain.Session
	rec := env.do(t, http.MethodPost, "/api/chat/sessions", SessionCreateRequest{Title: title}, &session)
	require.Equal(t, http.StatusCreated, rec.Code)
	return session
}

func TestCreateSessionRequiresTitle(t *testing.T) {
	env := newTestEnv(t)

	var resp map[string]string
	rec := env.do(t, http.MethodPost, "/api/chat/sessions", map[string]string{"description": "no title"}, &resp)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title is required", resp["detail"])
}

func TestSessionCRUD(t *testing.T) {
	env := newTestEnv(t)

	created := createSession(t, env, "Roadmap")
	assert.True(t, created.IsActive)
	assert.NotEmpty(t, created.ID)

	var got domain.Session
	rec := env.do(t, http.MethodGet, "/api/chat/sessions/"+created.ID, nil, &got)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Roadmap", got.Title)

	var updated domain.Session
	rec = env.do(t, http.MethodPut, "/api/chat/sessions/"+created.ID, map[string]string{"title": "Roadmap v2"}, &updated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Roadmap v2", updated.Title)

	var sessions []domain.Session
	rec = env.do(t, http.MethodGet, "/api/chat/sessions", nil, &sessions)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sessions, 1)
}

func TestGetSessionNotFound(t *testing.T) {
	env := newTestEnv(t)

	var resp map[string]string
	rec := env.do(t, http.MethodGet, "/api/chat/sessions/missing", nil, &resp)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", resp["detail"])
}

func TestUpdateSessionNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/chat/sessions/missing", map[string]string{"title": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSoftDeleteHidesSession(t *testing.T) {
	env := newTestEnv(t)
	created := createSession(t, env, "Temp")

	rec := env.do(t, http.MethodDelete, "/api/chat/sessions/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []domain.Session
	env.do(t, http.MethodGet, "/api/chat/sessions", nil, &sessions)
	assert.Empty(t, sessions)

	// include_inactive brings it back
	env.do(t, http.MethodGet, "/api/chat/sessions?include_inactive=true", nil, &sessions)
	assert.Len(t, sessions, 1)
}

func TestHardDeleteRemovesSession(t *testing.T) {
	env := newTestEnv(t)
	created := createSession(t, env, "Gone")

	rec := env.do(t, http.MethodDelete, "/api/chat/sessions/"+created.ID+"?permanent=true", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/chat/sessions/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSessionNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodDelete, "/api/chat/sessions/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	created := createSession(t, env, "Stats")

	env.do(t, http.MethodPost, "/api/chat/sessions/"+created.ID+"/messages",
		MessageCreateRequest{Content: "hi", MessageType: "user"}, nil)
	env.do(t, http.MethodPost, "/api/chat/sessions/"+created.ID+"/messages",
		MessageCreateRequest{Content: "hello", MessageType: "assistant"}, nil)

	var stats domain.SessionStats
	rec := env.do(t, http.MethodGet, "/api/chat/sessions/"+created.ID+"/stats", nil, &stats)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, stats.TotalMessages)
	assert.Equal(t, 1, stats.UserMessages)
	assert.Equal(t, 1, stats.AssistantMessages)
}

func TestGenerateTitlePersists(t *testing.T) {
	env := newTestEnv(t)
	created := createSession(t, env, "New Chat")

	env.provider.TitleFunc = func(firstMessage string) *openai.TitleResult {
		return &openai.TitleResult{Success: true, Title: "Quarterly Goals"}
	}

	var resp map[string]interface{}
	rec := env.do(t, http.MethodPost, "/api/chat/sessions/"+created.ID+"/generate-title",
		TitleRequest{Message: "let's plan the quarter"}, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Quarterly Goals", resp["title"])

	var got domain.Session
	env.do(t, http.MethodGet, "/api/chat/sessions/"+created.ID, nil, &got)
	assert.Equal(t, "Quarterly Goals", got.Title)
}

func TestGenerateTitleFallbackStillPersists(t *testing.T) {
	env := newTestEnv(t)
	created := createSession(t, env, "New Chat")

	env.provider.TitleFunc = func(firstMessage string) *openai.TitleResult {
		return &openai.TitleResult{Success: false, Title: openai.FallbackTitle(firstMessage), Error: "upstream down"}
	}

	var resp map[string]interface{}
	rec := env.do(t, http.MethodPost, "/api/chat/sessions/"+created.ID+"/generate-title",
		TitleRequest{Message: "budget review"}, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["success"])

	var got domain.Session
	env.do(t, http.MethodGet, "/api/chat/sessions/"+created.ID, nil, &got)
	assert.Equal(t, "Chat budget review", got.Title)
}

func TestGenerateTitleSessionNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/chat/sessions/missing/generate-title",
		TitleRequest{Message: "hi"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
