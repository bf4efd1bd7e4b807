// Package atlassian provides Jira and Confluence clients. When credentials
// are absent a disabled variant is returned so callers always get a uniform
// Enabled() check instead of nil-checking a field.
package atlassian

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// IssueFields are the fields of a Jira issue to create.
type IssueFields struct {
	Project     string
	Summary     string
	Description string
	IssueType   string
	Priority    string
}

// Issue is a created Jira issue.
type Issue struct {
	ID      string `json:"id"`
	Key     string `json:"key"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// JiraClient creates issues in a Jira instance.
type JiraClient interface {
	Enabled() bool
	CreateIssue(ctx context.Context, fields IssueFields) (*Issue, error)
}

// NewJiraClient returns a live client when the instance URL and API key are
// set, and a disabled client otherwise.
func NewJiraClient(instanceURL, userEmail, apiKey string) JiraClient {
	if instanceURL == "" || apiKey == "" {
		return disabledJira{}
	}

	client := resty.New()
	client.SetBaseURL(instanceURL)
	client.SetBasicAuth(userEmail, apiKey)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("Content-Type", "application/json")

	return &jiraClient{client: client, instanceURL: instanceURL}
}

type jiraClient struct {
	client      *resty.Client
	instanceURL string
}

func (j *jiraClient) Enabled() bool { return true }

type jiraCreateResponse struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type jiraErrorResponse struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

func (j *jiraClient) CreateIssue(ctx context.Context, fields IssueFields) (*Issue, error) {
	if fields.Project == "" {
		fields.Project = "PROJ"
	}
	if fields.IssueType == "" {
		fields.IssueType = "Story"
	}
	if fields.Priority == "" {
		fields.Priority = "Medium"
	}

	body := map[string]interface{}{
		"fields": map[string]interface{}{
			"project":     map[string]string{"key": fields.Project},
			"summary":     fields.Summary,
			"description": fields.Description,
			"issuetype":   map[string]string{"name": fields.IssueType},
			"priority":    map[string]string{"name": fields.Priority},
		},
	}

	var created jiraCreateResponse
	var apiErr jiraErrorResponse
	resp, err := j.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&created).
		SetError(&apiErr).
		Post("/rest/api/2/issue")
	if err != nil {
		return nil, fmt.Errorf("jira request failed: %w", err)
	}
	if resp.IsError() {
		if len(apiErr.ErrorMessages) > 0 {
			return nil, fmt.Errorf("jira error [%d]: %s", resp.StatusCode(), apiErr.ErrorMessages[0])
		}
		return nil, fmt.Errorf("jira error [%d]: %s", resp.StatusCode(), resp.String())
	}

	return &Issue{
		ID:      created.ID,
		Key:     created.Key,
		Summary: fields.Summary,
		URL:     fmt.Sprintf("%s/browse/%s", j.instanceURL, created.Key),
	}, nil
}

type disabledJira struct{}

func (disabledJira) Enabled() bool { return false }

func (disabledJira) CreateIssue(ctx context.Context, fields IssueFields) (*Issue, error) {
	return nil, fmt.Errorf("Jira client not initialized. Check your configuration.")
}
