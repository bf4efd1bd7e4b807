package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asedra/attila/internal/openai"
)

func TestOpenAIStatusDefaults(t *testing.T) {
	env := newTestEnv(t)

	var resp map[string]interface{}
	rec := env.do(t, http.MethodGet, "/api/settings/openai/status", nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["configured"])
	assert.Equal(t, "gpt-3.5-turbo", resp["model"])
	assert.Equal(t, 0.7, resp["temperature"])
}

func TestSaveOpenAISettings(t *testing.T) {
	env := newTestEnv(t)

	var resp map[string]interface{}
	rec := env.do(t, http.MethodPost, "/api/settings/openai",
		openai.Settings{OpenAIAPIKey: "sk-test", SelectedModel: "gpt-4o"}, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])

	var status map[string]interface{}
	env.do(t, http.MethodGet, "/api/settings/openai/status", nil, &status)
	assert.Equal(t, true, status["configured"])
	assert.Equal(t, "gpt-4o", status["model"])
}

func TestOpenAIModelsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	var resp struct {
		Models []openai.ModelInfo `json:"models"`
	}
	rec := env.do(t, http.MethodGet, "/api/settings/openai/models", nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, resp.Models)
}

func TestTestOpenAIRequiresKey(t *testing.T) {
	env := newTestEnv(t)

	var resp map[string]string
	rec := env.do(t, http.MethodPost, "/api/settings/test-openai", map[string]string{"model": "gpt-4"}, &resp)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "apiKey is required", resp["detail"])
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	var resp map[string]interface{}
	rec := env.do(t, http.MethodGet, "/api/health", nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp["status"])

	services, ok := resp["services"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", services["database"])
	assert.Equal(t, "not_configured", services["jira"])
}
