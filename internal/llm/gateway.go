package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// ConfigSource returns the process-wide enabled provider configuration, if any.
type ConfigSource interface {
	EnabledConfig(ctx context.Context) (Config, bool, error)
}

// Gateway selects provider configuration and dispatches prompts to adapters.
type Gateway struct {
	source   ConfigSource
	defaults Config
	clients  map[ProviderKind]ProviderClient
	timeout  time.Duration
}

// NewGateway builds a gateway. defaults is used when source has no usable
// record; timeout bounds each provider call (0 disables the gateway timeout).
func NewGateway(source ConfigSource, defaults Config, timeout time.Duration, clients map[ProviderKind]ProviderClient) *Gateway {
	if clients == nil {
		clients = map[ProviderKind]ProviderClient{}
	}
	if defaults.ID == "" {
		defaults.ID = "default"
	}
	return &Gateway{source: source, defaults: defaults, clients: clients, timeout: timeout}
}

// ResolveConfig returns the enabled configuration when it carries a key,
// otherwise the default configuration. The result may still lack credentials;
// callers check Available before calling.
func (g *Gateway) ResolveConfig(ctx context.Context) Config {
	if g.source != nil {
		cfg, ok, err := g.source.EnabledConfig(ctx)
		if err != nil {
			telemetry.Warn("llm.config.lookup_failed", map[string]any{"error": err})
		} else if ok && cfg.HasCredentials() {
			return cfg
		}
	}
	return g.defaults
}

// Available reports whether cfg can be used for a network call.
func (g *Gateway) Available(cfg Config) bool {
	if !cfg.HasCredentials() {
		return false
	}
	_, ok := g.clients[cfg.Provider]
	return ok
}

// Call sends req to the provider named by cfg and returns the raw completion text.
// Every failure is a *ProviderError.
func (g *Gateway) Call(ctx context.Context, req Request, cfg Config) (string, error) {
	start := time.Now()
	text, err := g.call(ctx, req, cfg)
	status := "ok"
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			status = perr.Status()
		} else {
			status = "error"
		}
		telemetry.Warn("llm.call.failed", map[string]any{
			"provider":  string(cfg.Provider),
			"model":     cfg.Model,
			"config_id": cfg.ID,
			"status":    status,
			"error":     err,
		})
	}
	metrics.ObserveProviderRequest(string(cfg.Provider), status, time.Since(start))
	return text, err
}

func (g *Gateway) call(ctx context.Context, req Request, cfg Config) (string, error) {
	if !cfg.HasCredentials() {
		return "", &ProviderError{Provider: cfg.Provider, Reason: "missing credentials", Err: ErrMissingCredentials}
	}
	client, ok := g.clients[cfg.Provider]
	if !ok {
		return "", &ProviderError{Provider: cfg.Provider, Reason: "no adapter", Err: fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)}
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := client.Complete(ctx, cfg, req)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) {
			return "", perr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &ProviderError{Provider: cfg.Provider, Reason: ReasonTimeout, Err: err}
		}
		return "", &ProviderError{Provider: cfg.Provider, Reason: ReasonTransport, Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ProviderError{Provider: cfg.Provider, Reason: ReasonEmpty}
	}
	return text, nil
}
