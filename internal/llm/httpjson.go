package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 512

// PostJSON sends body as JSON to url and decodes a 2xx response into out.
// Every failure is returned as *ProviderError tagged with provider.
func PostJSON(ctx context.Context, client *http.Client, provider ProviderKind, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &ProviderError{Provider: provider, Reason: "encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &ProviderError{Provider: provider, Reason: ReasonTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return &ProviderError{Provider: provider, Reason: ReasonTimeout, Err: err}
		}
		return &ProviderError{Provider: provider, Reason: ReasonTransport, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Reason: ReasonTransport, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(raw))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return &ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Reason:     ReasonHTTPStatus,
			Err:        fmt.Errorf("%s", snippet),
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Reason: ReasonDecode, Err: err}
	}
	return nil
}

// JoinURL appends path to base, tolerating trailing slashes.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "Client.Timeout")
}
