package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"compliance-backend/internal/llm"
)

func TestCompleteSendsMessagesRequest(t *testing.T) {
	var payload messagesRequest
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"[{\"severity\":"},{"type":"text","text":"\"high\"}]"}]}`))
	}))
	defer server.Close()

	out, err := NewClient(server.Client()).Complete(context.Background(), llm.Config{
		Model: "claude-model", APIKey: "key-1", APIEndpoint: server.URL + "/v1", Temperature: 0.2,
	}, llm.Request{System: "sys", Prompt: "hello"})
	require.NoError(t, err)
	require.Equal(t, `[{"severity":"high"}]`, out)
	require.Equal(t, "key-1", headers.Get("x-api-key"))
	require.Equal(t, apiVersion, headers.Get("anthropic-version"))
	require.Equal(t, "sys", payload.System)
	require.Equal(t, defaultMaxToken, payload.MaxTokens)
	require.Len(t, payload.Messages, 1)
}

func TestCompleteServerErrorIsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.Client()).Complete(context.Background(), llm.Config{APIKey: "k", APIEndpoint: server.URL}, llm.Request{Prompt: "p"})
	var perr *llm.ProviderError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, llm.ProviderAnthropic, perr.Provider)
	require.Equal(t, http.StatusInternalServerError, perr.StatusCode)
}
