package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/asedra/attila/internal/atlassian"
	"github.com/asedra/attila/internal/functions"
	"github.com/asedra/attila/internal/hub"
	"github.com/asedra/attila/internal/openai"
	"github.com/asedra/attila/internal/policy"
	"github.com/asedra/attila/internal/store"
)

type testEnv struct {
	handler  *Handler
	echo     *echo.Echo
	store    store.Store
	provider *openai.MockProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	jira := atlassian.NewJiraClient("", "", "")
	confluence := atlassian.NewConfluenceClient("", "", "")
	svc := functions.NewService(st, jira, confluence, engine)

	provider := openai.NewMockProvider()
	settings := openai.NewClient(filepath.Join(t.TempDir(), "settings.json"), "", time.Second)

	h := NewHandler(st, provider, settings, svc, hub.New(), jira, confluence)
	e := echo.New()
	h.RegisterRoutes(e)

	return &testEnv{handler: h, echo: e, store: st, provider: provider}
}

// do performs a request through the full echo router and decodes the JSON
// response into out when non-nil.
func (env *testEnv) do(t *testing.T, method, path string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}
