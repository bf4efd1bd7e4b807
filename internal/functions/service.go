// Package functions manages the invocable function catalog and dispatches
// executions to their backing integrations.
package functions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/asedra/attila/internal/atlassian"
	"github.com/asedra/attila/internal/domain"
	"github.com/asedra/attila/internal/policy"
	"github.com/asedra/attila/internal/store"
)

// ErrBlocked is returned when the policy refuses an operation.
var ErrBlocked = errors.New("operation blocked by policy")

// Service manages the function catalog.
type Service struct {
	store      store.Store
	jira       atlassian.JiraClient
	confluence atlassian.ConfluenceClient
	policy     *policy.Engine
}

// NewService creates a catalog service.
func NewService(st store.Store, jira atlassian.JiraClient, confluence atlassian.ConfluenceClient, engine *policy.Engine) *Service {
	return &Service{store: st, jira: jira, confluence: confluence, policy: engine}
}

// List returns the catalog. Integration-backed functions report themselves
// disabled when their client is unavailable.
func (s *Service) List(ctx context.Context, includeDisabled bool) ([]domain.Function, error) {
	functions, err := s.store.ListFunctions(ctx, includeDisabled)
	if err != nil {
		return nil, fmt.Errorf("failed to list functions: %w", err)
	}
	for i := range functions {
		functions[i].IsEnabled = functions[i].IsEnabled && s.integrationAvailable(functions[i].Implementation)
	}
	return functions, nil
}

// integrationAvailable reports whether the backing client for an
// implementation reference is usable. Implementations with no external
// backing are always available.
func (s *Service) integrationAvailable(implementation string) bool {
	switch implementation {
	case "mcp:jira-create":
		return s.jira.Enabled()
	case "mcp:confluence-save":
		return s.confluence.Enabled()
	default:
		return true
	}
}

// ByCategory returns the enabled functions in a category, availability
// adjusted like List.
func (s *Service) ByCategory(ctx context.Context, category string) ([]domain.Function, error) {
	functions, err := s.store.ListFunctionsByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list functions by category: %w", err)
	}
	for i := range functions {
		functions[i].IsEnabled = functions[i].IsEnabled && s.integrationAvailable(functions[i].Implementation)
	}
	return functions, nil
}

// Get returns one function, or nil when not found.
func (s *Service) Get(ctx context.Context, functionID string) (*domain.Function, error) {
	return s.store.GetFunction(ctx, functionID)
}

// Categories returns the distinct enabled categories.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.FunctionCategories(ctx)
}

// Create inserts a new custom function.
func (s *Service) Create(ctx context.Context, fn *domain.Function) error {
	if err := s.store.CreateFunction(ctx, fn); err != nil {
		return fmt.Errorf("failed to create function: %w", err)
	}
	log.Printf("Created function: %s (ID: %s)", fn.Name, fn.ID)
	return nil
}

// Update applies partial field updates. Returns nil when not found.
func (s *Service) Update(ctx context.Context, functionID string, fields store.FunctionUpdate) (*domain.Function, error) {
	return s.store.UpdateFunction(ctx, functionID, fields)
}

// Delete removes a function. System functions are refused by policy.
// Returns false when the function does not exist.
func (s *Service) Delete(ctx context.Context, functionID string) (bool, error) {
	fn, err := s.store.GetFunction(ctx, functionID)
	if err != nil {
		return false, err
	}
	if fn == nil {
		return false, nil
	}

	decision, err := s.policy.Evaluate(ctx, policy.Input{
		Action:   "delete",
		Name:     fn.Name,
		Category: fn.Category,
		Enabled:  fn.IsEnabled,
		System:   fn.IsSystem,
	})
	if err != nil {
		return false, err
	}
	if decision == policy.DecisionBlock {
		log.Printf("WARN: refusing to delete system function: %s", fn.Name)
		return false, ErrBlocked
	}

	ok, err := s.store.DeleteFunction(ctx, functionID)
	if err != nil {
		return false, err
	}
	if ok {
		log.Printf("Deleted function: %s (ID: %s)", fn.Name, functionID)
	}
	return ok, nil
}

// Execute runs a function and returns its result payload. Upstream failures
// are reported through an "error" key, never as a Go error.
func (s *Service) Execute(ctx context.Context, functionID string, params map[string]interface{}) map[string]interface{} {
	fn, err := s.store.GetFunction(ctx, functionID)
	if err != nil {
		return map[string]interface{}{"error": fmt.Sprintf("Error executing function %s: %v", functionID, err)}
	}
	if fn == nil {
		return map[string]interface{}{"error": fmt.Sprintf("Unknown function: %s", functionID)}
	}

	decision, err := s.policy.Evaluate(ctx, policy.Input{
		Action:   "execute",
		Name:     fn.Name,
		Category: fn.Category,
		Enabled:  fn.IsEnabled,
		System:   fn.IsSystem,
	})
	if err != nil {
		return map[string]interface{}{"error": fmt.Sprintf("Policy evaluation failed: %v", err)}
	}
	if decision == policy.DecisionBlock {
		return map[string]interface{}{"error": fmt.Sprintf("Function %s is disabled", fn.Name)}
	}

	switch fn.Implementation {
	case "mcp:idea-create":
		return s.createIdea(params)
	case "mcp:idea-analyze":
		return s.analyzeIdea(params)
	case "mcp:jira-create":
		return s.createJiraIssue(ctx, params)
	case "mcp:confluence-save":
		return s.saveToConfluence(ctx, params)
	default:
		return map[string]interface{}{"error": fmt.Sprintf("Unknown implementation: %s", fn.Implementation)}
	}
}

func (s *Service) createIdea(params map[string]interface{}) map[string]interface{} {
	now := time.Now()
	return map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"id":          fmt.Sprintf("idea-%d", now.UnixNano()),
			"title":       stringParam(params, "title", "New Idea"),
			"description": stringParam(params, "description", ""),
			"timestamp":   now.Format(time.RFC3339),
			"status":      "created",
		},
	}
}

func (s *Service) analyzeIdea(params map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"feasibility":          "high",
			"market_potential":     "medium",
			"technical_complexity": "medium",
			"estimated_timeline":   "3-6 months",
			"key_challenges":       []string{"User acquisition", "Competition", "Scaling"},
			"next_steps":           []string{"Market research", "MVP development", "User testing"},
			"analysis_timestamp":   time.Now().Format(time.RFC3339),
		},
	}
}

func (s *Service) createJiraIssue(ctx context.Context, params map[string]interface{}) map[string]interface{} {
	if !s.jira.Enabled() {
		return map[string]interface{}{"error": "Jira client not initialized. Check your configuration."}
	}

	issue, err := s.jira.CreateIssue(ctx, atlassian.IssueFields{
		Summary:     stringParam(params, "title", "New Issue"),
		Description: stringParam(params, "description", ""),
		IssueType:   stringParam(params, "issue_type", ""),
		Priority:    stringParam(params, "priority", ""),
	})
	if err != nil {
		return map[string]interface{}{"error": fmt.Sprintf("Jira operation failed: %v", err)}
	}

	return map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"key":     issue.Key,
			"id":      issue.ID,
			"summary": issue.Summary,
			"url":     issue.URL,
		},
	}
}

func (s *Service) saveToConfluence(ctx context.Context, params map[string]interface{}) map[string]interface{} {
	if !s.confluence.Enabled() {
		return map[string]interface{}{"error": "Confluence client not initialized. Check your configuration."}
	}

	spaceKey := stringParam(params, "spaceKey", stringParam(params, "space", ""))
	page, err := s.confluence.CreatePage(ctx, spaceKey,
		stringParam(params, "title", "New Page"),
		stringParam(params, "content", ""))
	if err != nil {
		return map[string]interface{}{"error": fmt.Sprintf("Confluence operation failed: %v", err)}
	}

	return map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"id":    page.ID,
			"title": page.Title,
			"url":   page.URL,
		},
	}
}

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return defaultVal
}
