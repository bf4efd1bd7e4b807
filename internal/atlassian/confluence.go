package atlassian

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Page is a created Confluence page.
type Page struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ConfluenceClient creates pages in a Confluence space.
type ConfluenceClient interface {
	Enabled() bool
	CreatePage(ctx context.Context, spaceKey, title, body string) (*Page, error)
}

// NewConfluenceClient returns a live client when the URL and API key are set,
// and a disabled client otherwise.
func NewConfluenceClient(baseURL, username, apiKey string) ConfluenceClient {
	if baseURL == "" || apiKey == "" {
		return disabledConfluence{}
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetBasicAuth(username, apiKey)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("Content-Type", "application/json")

	return &confluenceClient{client: client, baseURL: baseURL}
}

type confluenceClient struct {
	client  *resty.Client
	baseURL string
}

func (c *confluenceClient) Enabled() bool { return true }

type confluenceCreateResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (c *confluenceClient) CreatePage(ctx context.Context, spaceKey, title, body string) (*Page, error) {
	if spaceKey == "" {
		spaceKey = "PROJ"
	}

	payload := map[string]interface{}{
		"type":  "page",
		"title": title,
		"space": map[string]string{"key": spaceKey},
		"body": map[string]interface{}{
			"storage": map[string]string{
				"value":          body,
				"representation": "storage",
			},
		},
	}

	var created confluenceCreateResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&created).
		Post("/rest/api/content")
	if err != nil {
		return nil, fmt.Errorf("confluence request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("confluence error [%d]: %s", resp.StatusCode(), resp.String())
	}

	return &Page{
		ID:    created.ID,
		Title: created.Title,
		URL:   fmt.Sprintf("%s/pages/viewpage.action?pageId=%s", c.baseURL, created.ID),
	}, nil
}

type disabledConfluence struct{}

func (disabledConfluence) Enabled() bool { return false }

func (disabledConfluence) CreatePage(ctx context.Context, spaceKey, title, body string) (*Page, error) {
	return nil, fmt.Errorf("Confluence client not initialized. Check your configuration.")
}
