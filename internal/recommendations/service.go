package recommendations

import (
	"context"
	"errors"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/llm"
	"compliance-backend/internal/prompts"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// Source tells where a recommendation set came from.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
	SourceCache    Source = "cache"
)

// Provider is the subset of the gateway the service needs.
type Provider interface {
	ResolveConfig(ctx context.Context) llm.Config
	Available(cfg llm.Config) bool
	Call(ctx context.Context, req llm.Request, cfg llm.Config) (string, error)
}

// Result is returned by GetRecommendations.
type Result struct {
	Recommendations []compliance.Recommendation `json:"recommendations"`
	Source          Source                      `json:"source"`
	Fingerprint     string                      `json:"fingerprint"`
}

// Service produces recommendation sets, consulting the cache first.
type Service struct {
	provider Provider
	cache    *Cache
}

// NewService constructs a Service.
func NewService(provider Provider, cache *Cache) *Service {
	return &Service{provider: provider, cache: cache}
}

// GetRecommendations never fails: provider and parse errors fall back to the
// deterministic rules. Both AI and fallback results are cached.
func (s *Service) GetRecommendations(ctx context.Context, req compliance.RecommendationRequest) Result {
	hash := Fingerprint(req)
	if entry, ok := s.cache.Get(ctx, hash); ok {
		telemetry.Info("recommendations.cache.hit", map[string]any{"fingerprint": hash, "contractor_id": req.ContractorID})
		metrics.IncRecommendations(string(SourceCache))
		return Result{Recommendations: entry.Payload, Source: SourceCache, Fingerprint: hash}
	}

	recs, source := s.generate(ctx, req, hash)
	if err := s.cache.Set(ctx, hash, source, recs); err != nil {
		telemetry.Warn("recommendations.cache.write_failed", map[string]any{"fingerprint": hash, "error": err})
	}
	metrics.IncRecommendations(string(source))
	return Result{Recommendations: recs, Source: source, Fingerprint: hash}
}

func (s *Service) generate(ctx context.Context, req compliance.RecommendationRequest, hash string) ([]compliance.Recommendation, Source) {
	fields := map[string]any{"fingerprint": hash, "contractor_id": req.ContractorID}

	cfg := s.provider.ResolveConfig(ctx)
	if !s.provider.Available(cfg) {
		fields["reason"] = "no_provider"
		telemetry.Info("recommendations.fallback", fields)
		return Fallback(req), SourceFallback
	}

	raw, err := s.provider.Call(ctx, prompts.Recommendations(req), cfg)
	if err != nil {
		fields["reason"] = "provider_error"
		fields["error"] = err
		telemetry.Warn("recommendations.fallback", fields)
		return Fallback(req), SourceFallback
	}

	recs, err := Parse(raw, req.CriticalIssues)
	if err != nil {
		var perr *llm.ParseError
		fields["reason"] = "parse_error"
		if errors.As(err, &perr) {
			fields["error"] = perr.Err
		}
		telemetry.Warn("recommendations.fallback", fields)
		return Fallback(req), SourceFallback
	}

	fields["count"] = len(recs)
	fields["provider"] = string(cfg.Provider)
	telemetry.Info("recommendations.generated", fields)
	return recs, SourceAI
}
