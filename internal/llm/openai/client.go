package openai

import (
	"context"
	"net/http"
	"strings"

	"compliance-backend/internal/llm"
)

// DefaultEndpoint is used when the config has no api_endpoint.
const DefaultEndpoint = "https://api.openai.com/v1"

// Client implements llm.ProviderClient using OpenAI Chat Completions.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs a new OpenAI adapter. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete returns the first choice's message content.
func (c *Client) Complete(ctx context.Context, cfg llm.Config, req llm.Request) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:          cfg.Model,
		Messages:       messages,
		MaxTokens:      cfg.MaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	// gpt-5 models reject explicit temperatures.
	if !isGPT5(cfg.Model) {
		temp := cfg.Temperature
		body.Temperature = &temp
	}

	endpoint := cfg.APIEndpoint
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	headers := map[string]string{"Authorization": "Bearer " + cfg.APIKey}

	var parsed chatResponse
	if err := llm.PostJSON(ctx, c.httpClient, llm.ProviderOpenAI, llm.JoinURL(endpoint, "chat/completions"), headers, body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", &llm.ProviderError{Provider: llm.ProviderOpenAI, StatusCode: 0, Reason: "response missing choices"}
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.ProviderClient = (*Client)(nil)
