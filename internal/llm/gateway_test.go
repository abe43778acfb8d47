package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-backend/internal/shared/storage/kv"
)

func TestResolveConfigPrefersEnabledRecordWithKey(t *testing.T) {
	ctx := context.Background()
	repo := NewConfigRepo(kv.NewMemoryStore())
	require.NoError(t, repo.Save(ctx, Config{ID: "b", Provider: ProviderAnthropic, Model: "m", APIKey: "kb", MaxTokens: 10, Enabled: true}))
	require.NoError(t, repo.Save(ctx, Config{ID: "a", Provider: ProviderOllama, Model: "m", APIKey: "ka", MaxTokens: 10, Enabled: false}))

	g := NewGateway(repo, Config{Provider: ProviderOpenAI, Model: "default"}, 0, nil)
	got := g.ResolveConfig(ctx)
	assert.Equal(t, "b", got.ID)
	assert.Equal(t, ProviderAnthropic, got.Provider)
}

func TestResolveConfigFallsBackToDefaultWhenKeyMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewConfigRepo(kv.NewMemoryStore())
	require.NoError(t, repo.Save(ctx, Config{ID: "a", Provider: ProviderOpenAI, Model: "m", MaxTokens: 10, Enabled: true}))

	g := NewGateway(repo, Config{Provider: ProviderOpenAI, Model: "gpt-4o-mini"}, 0, nil)
	got := g.ResolveConfig(ctx)
	assert.Equal(t, "default", got.ID)
	assert.False(t, g.Available(got))
}

func TestCallMissingCredentialsNeverReachesAdapter(t *testing.T) {
	called := false
	g := NewGateway(nil, Config{}, 0, map[ProviderKind]ProviderClient{
		ProviderOpenAI: ProviderClientFunc(func(context.Context, Config, Request) (string, error) {
			called = true
			return "x", nil
		}),
	})
	_, err := g.Call(context.Background(), Request{Prompt: "p"}, Config{Provider: ProviderOpenAI})
	require.ErrorIs(t, err, ErrMissingCredentials)
	assert.False(t, called)
}

func TestCallWrapsAdapterErrorsUniformly(t *testing.T) {
	cfg := Config{Provider: ProviderOllama, APIKey: "k"}
	g := NewGateway(nil, Config{}, 0, map[ProviderKind]ProviderClient{
		ProviderOllama: ProviderClientFunc(func(context.Context, Config, Request) (string, error) {
			return "", errors.New("connection refused")
		}),
	})
	_, err := g.Call(context.Background(), Request{Prompt: "p"}, cfg)
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ProviderOllama, perr.Provider)
	assert.Equal(t, ReasonTransport, perr.Reason)

	_, err = g.Call(context.Background(), Request{Prompt: "p"}, Config{Provider: "mystery", APIKey: "k"})
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestCallTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	g := NewGateway(nil, Config{}, 50*time.Millisecond, map[ProviderKind]ProviderClient{
		ProviderOpenAI: ProviderClientFunc(func(ctx context.Context, cfg Config, req Request) (string, error) {
			var out map[string]any
			err := PostJSON(ctx, server.Client(), ProviderOpenAI, server.URL, nil, map[string]string{}, &out)
			return "", err
		}),
	})
	_, err := g.Call(context.Background(), Request{Prompt: "p"}, Config{Provider: ProviderOpenAI, APIKey: "k"})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ReasonTimeout, perr.Reason)
	assert.Equal(t, "timeout", perr.Status())
}

func TestCallRejectsEmptyCompletion(t *testing.T) {
	g := NewGateway(nil, Config{}, 0, map[ProviderKind]ProviderClient{
		ProviderOpenAI: ProviderClientFunc(func(context.Context, Config, Request) (string, error) { return "   ", nil }),
	})
	_, err := g.Call(context.Background(), Request{Prompt: "p"}, Config{Provider: ProviderOpenAI, APIKey: "k"})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ReasonEmpty, perr.Reason)
}

func TestConfigMaskedAndValidate(t *testing.T) {
	assert.Equal(t, "****cdef", Config{APIKey: "sk-abcdef"}.Masked().APIKey)
	assert.Equal(t, "****", Config{APIKey: "abc"}.Masked().APIKey)
	assert.Equal(t, "", Config{}.Masked().APIKey)

	require.ErrorIs(t, Validate(Config{ID: "x", Provider: "gemini", Model: "m", MaxTokens: 1}), ErrInvalidConfig)
	require.ErrorIs(t, Validate(Config{ID: "a:b", Provider: ProviderOpenAI, Model: "m", MaxTokens: 1}), ErrInvalidConfig)
	require.ErrorIs(t, Validate(Config{ID: "x", Provider: ProviderOpenAI, Model: "m", MaxTokens: 1, Temperature: 3}), ErrInvalidConfig)
	require.NoError(t, Validate(Config{ID: "x", Provider: ProviderOpenAI, Model: "m", MaxTokens: 1}))
}
