package ollama

import (
	"context"
	"net/http"
	"strings"

	"compliance-backend/internal/llm"
)

// DefaultEndpoint is a local Ollama daemon.
const DefaultEndpoint = "http://localhost:11434"

// Client implements llm.ProviderClient using Ollama's /api/chat endpoint.
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

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  chatOptions   `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// Complete sends a non-streaming chat request. The API key, when present,
// is sent as a bearer token for deployments behind an authenticating proxy.
func (c *Client) Complete(ctx context.Context, cfg llm.Config, req llm.Request) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:    cfg.Model,
		Messages: messages,
		Format:   "json",
		Options:  chatOptions{Temperature: cfg.Temperature, NumPredict: cfg.MaxTokens},
	}
	endpoint := cfg.APIEndpoint
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	headers := map[string]string{}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		headers["Authorization"] = "Bearer " + key
	}

	var parsed chatResponse
	if err := llm.PostJSON(ctx, c.httpClient, llm.ProviderOllama, llm.JoinURL(endpoint, "api/chat"), headers, body, &parsed); err != nil {
		return "", err
	}
	return strings.TrimSpace(parsed.Message.Content), nil
}

var _ llm.ProviderClient = (*Client)(nil)
