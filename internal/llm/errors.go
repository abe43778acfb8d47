package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is wrapped by ProviderError when the config has no API key.
	ErrMissingCredentials = errors.New("provider api key is not configured")
	// ErrUnknownProvider is wrapped by ProviderError when no adapter is registered for a kind.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrConfigNotFound is returned by ConfigRepo.Get.
	ErrConfigNotFound = errors.New("provider config not found")
	// ErrInvalidConfig is returned when a config record fails validation.
	ErrInvalidConfig = errors.New("invalid provider config")
)

// ProviderError is the single error shape returned by the gateway for network,
// HTTP, timeout and credential failures, whatever the provider.
type ProviderError struct {
	Provider   ProviderKind
	StatusCode int
	Reason     string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider: %s (http %d)", e.Provider, e.Reason, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s provider: %s", e.Provider, e.Reason)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Status returns a short label for metrics: timeout, credentials, http_<code> or error.
func (e *ProviderError) Status() string {
	switch {
	case e.Reason == ReasonTimeout:
		return "timeout"
	case errors.Is(e.Err, ErrMissingCredentials):
		return "credentials"
	case e.StatusCode > 0:
		return fmt.Sprintf("http_%d", e.StatusCode)
	default:
		return "error"
	}
}

// Reasons used by adapters and the gateway.
const (
	ReasonTimeout    = "request timed out"
	ReasonHTTPStatus = "non-2xx response"
	ReasonTransport  = "request failed"
	ReasonDecode     = "unreadable response"
	ReasonEmpty      = "empty completion"
)
