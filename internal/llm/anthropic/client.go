package anthropic

import (
	"context"
	"net/http"
	"strings"

	"compliance-backend/internal/llm"
)

const (
	// DefaultEndpoint is used when the config has no api_endpoint.
	DefaultEndpoint = "https://api.anthropic.com/v1"
	apiVersion      = "2023-06-01"
	defaultMaxToken = 1024
)

// Client implements llm.ProviderClient using the Messages API.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs the adapter. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete concatenates the text blocks of the reply.
func (c *Client) Complete(ctx context.Context, cfg llm.Config, req llm.Request) (string, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxToken
	}
	body := messagesRequest{
		Model:       cfg.Model,
		System:      req.System,
		Messages:    []message{{Role: "user", Content: req.Prompt}},
		MaxTokens:   maxTokens,
		Temperature: cfg.Temperature,
	}
	endpoint := cfg.APIEndpoint
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": apiVersion,
	}

	var parsed messagesResponse
	if err := llm.PostJSON(ctx, c.httpClient, llm.ProviderAnthropic, llm.JoinURL(endpoint, "messages"), headers, body, &parsed); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

var _ llm.ProviderClient = (*Client)(nil)
