// Package httpapi implements the integration capabilities against a JSON HTTP
// API, authenticating with OAuth2 client credentials when configured.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"compliance-backend/internal/integrations"
)

const defaultTimeout = 15 * time.Second

// ErrNoEndpoint is returned by New when the config has no endpoint.
var ErrNoEndpoint = errors.New("integration endpoint is required")

// Client posts events, messages and tasks to a configured endpoint.
type Client struct {
	cfg        integrations.Config
	httpClient *http.Client
}

// New builds a client for cfg. With ClientID and TokenURL set, requests carry a
// bearer token obtained through the client-credentials grant.
func New(ctx context.Context, cfg integrations.Config, base *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrNoEndpoint
	}
	if base == nil {
		base = &http.Client{Timeout: defaultTimeout}
	}
	hc := base
	if cfg.ClientID != "" && cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		hc = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
		hc.Timeout = base.Timeout
	}
	return &Client{cfg: cfg, httpClient: hc}, nil
}

type receiptBody struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ScheduleMeeting posts to {endpoint}/events.
func (c *Client) ScheduleMeeting(ctx context.Context, m integrations.Meeting) (integrations.Receipt, error) {
	if m.Calendar == "" {
		m.Calendar = c.cfg.DefaultCalendar
	}
	return c.post(ctx, "events", m)
}

// Send posts to {endpoint}/messages.
func (c *Client) Send(ctx context.Context, msg integrations.EmailMessage) (integrations.Receipt, error) {
	if len(msg.To) == 0 {
		return integrations.Receipt{}, errors.New("email has no recipients")
	}
	return c.post(ctx, "messages", msg)
}

// CreateTask posts to {endpoint}/tasks.
func (c *Client) CreateTask(ctx context.Context, t integrations.Task) (integrations.Receipt, error) {
	if t.Project == "" {
		t.Project = c.cfg.DefaultProject
	}
	return c.post(ctx, "tasks", t)
}

func (c *Client) post(ctx context.Context, path string, body any) (integrations.Receipt, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return integrations.Receipt{}, err
	}
	url := strings.TrimRight(c.cfg.Endpoint, "/") + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return integrations.Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return integrations.Receipt{}, fmt.Errorf("%s %s: %w", c.cfg.Provider, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return integrations.Receipt{}, fmt.Errorf("%s %s read: %w", c.cfg.Provider, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return integrations.Receipt{}, fmt.Errorf("%s %s: http status %d: %s", c.cfg.Provider, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var parsed receiptBody
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return integrations.Receipt{}, fmt.Errorf("%s %s decode: %w", c.cfg.Provider, path, err)
		}
	}
	return integrations.Receipt{Provider: c.cfg.Provider, ExternalID: parsed.ID, URL: parsed.URL}, nil
}

var (
	_ integrations.Calendar    = (*Client)(nil)
	_ integrations.Email       = (*Client)(nil)
	_ integrations.TaskManager = (*Client)(nil)
)
