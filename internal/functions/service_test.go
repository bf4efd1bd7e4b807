package functions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asedra/attila/internal/atlassian"
	"github.com/asedra/attila/internal/policy"
	"github.com/asedra/attila/internal/store"
)

type fakeJira struct {
	enabled bool
	created []atlassian.IssueFields
}

func (f *fakeJira) Enabled() bool { return f.enabled }

func (f *fakeJira) CreateIssue(ctx context.Context, fields atlassian.IssueFields) (*atlassian.Issue, error) {
	f.created = append(f.created, fields)
	return &atlassian.Issue{ID: "10001", Key: "PROJ-1", Summary: fields.Summary, URL: "https://jira.example.com/browse/PROJ-1"}, nil
}

func newTestService(t *testing.T, jira atlassian.JiraClient) (*Service, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	if jira == nil {
		jira = atlassian.NewJiraClient("", "", "")
	}
	confluence := atlassian.NewConfluenceClient("", "", "")
	return NewService(st, jira, confluence, engine), st
}

func findByImplementation(t *testing.T, svc *Service, implementation string) string {
	t.Helper()
	functions, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	for _, fn := range functions {
		if fn.Implementation == implementation {
			return fn.ID
		}
	}
	t.Fatalf("no function with implementation %q", implementation)
	return ""
}

func TestExecuteIdeaCreate(t *testing.T) {
	svc, _ := newTestService(t, nil)
	id := findByImplementation(t, svc, "mcp:idea-create")

	result := svc.Execute(context.Background(), id, map[string]interface{}{
		"title":       "Faster onboarding",
		"description": "Reduce setup steps",
	})

	assert.Equal(t, true, result["success"])
	data := result["data"].(map[string]interface{})
	assert.Equal(t, "Faster onboarding", data["title"])
	assert.Equal(t, "created", data["status"])
}

func TestExecuteJiraDisabledClient(t *testing.T) {
	svc, _ := newTestService(t, nil)
	id := findByImplementation(t, svc, "mcp:jira-create")

	result := svc.Execute(context.Background(), id, map[string]interface{}{"title": "t"})
	assert.Contains(t, result["error"], "Jira client not initialized")
}

func TestExecuteJiraEnabledClient(t *testing.T) {
	jira := &fakeJira{enabled: true}
	svc, _ := newTestService(t, jira)
	id := findByImplementation(t, svc, "mcp:jira-create")

	result := svc.Execute(context.Background(), id, map[string]interface{}{
		"title":       "Fix login bug",
		"description": "Session expires early",
	})

	assert.Equal(t, true, result["success"])
	data := result["data"].(map[string]interface{})
	assert.Equal(t, "PROJ-1", data["key"])
	require.Len(t, jira.created, 1)
	assert.Equal(t, "Fix login bug", jira.created[0].Summary)
}

func TestExecuteUnknownFunction(t *testing.T) {
	svc, _ := newTestService(t, nil)

	result := svc.Execute(context.Background(), "nope", nil)
	assert.Contains(t, result["error"], "Unknown function")
}

func TestExecuteDisabledFunctionBlocked(t *testing.T) {
	svc, st := newTestService(t, nil)
	id := findByImplementation(t, svc, "mcp:idea-create")

	enabled := false
	_, err := st.UpdateFunction(context.Background(), id, store.FunctionUpdate{IsEnabled: &enabled})
	require.NoError(t, err)

	result := svc.Execute(context.Background(), id, nil)
	assert.Contains(t, result["error"], "disabled")
}

func TestDeleteSystemFunctionBlocked(t *testing.T) {
	svc, _ := newTestService(t, nil)
	id := findByImplementation(t, svc, "mcp:idea-create")

	_, err := svc.Delete(context.Background(), id)
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestListReportsUnavailableIntegrationsDisabled(t *testing.T) {
	svc, _ := newTestService(t, nil)

	functions, err := svc.List(context.Background(), true)
	assert.NoError(t, err)
	for _, fn := range functions {
		if fn.Implementation == "mcp:jira-create" || fn.Implementation == "mcp:confluence-save" {
			assert.False(t, fn.IsEnabled, "%s should report disabled without credentials", fn.Name)
		}
	}
}
