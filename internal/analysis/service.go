// Package analysis runs the four provider-backed analyses (root cause,
// pattern recognition, impact, resources), each with a local fallback.
package analysis

import (
	"context"

	"golang.org/x/sync/errgroup"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/llm"
	"compliance-backend/internal/prompts"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// Provider is the subset of the gateway the analyses need.
type Provider interface {
	ResolveConfig(ctx context.Context) llm.Config
	Available(cfg llm.Config) bool
	Call(ctx context.Context, req llm.Request, cfg llm.Config) (string, error)
}

// Service runs analyses. All methods tolerate an empty issue list and never fail.
type Service struct {
	provider Provider
}

// NewService constructs a Service.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// RootCause analyzes why the issues occurred.
func (s *Service) RootCause(ctx context.Context, in compliance.AnalysisInput) RootCauseAnalysis {
	return run(ctx, s, "root-cause", in, prompts.RootCause(in), parseRootCause, FallbackRootCause)
}

// Patterns looks for recurring patterns in historical records.
func (s *Service) Patterns(ctx context.Context, in compliance.AnalysisInput) PatternAnalysis {
	return run(ctx, s, "patterns", in, prompts.Patterns(in), parsePatterns, FallbackPatterns)
}

// Impact assesses project impact.
func (s *Service) Impact(ctx context.Context, in compliance.AnalysisInput) ImpactAssessment {
	return run(ctx, s, "impact", in, prompts.Impact(in), parseImpact, FallbackImpact)
}

// Resources proposes a resource allocation.
func (s *Service) Resources(ctx context.Context, in compliance.AnalysisInput) ResourceOptimization {
	return run(ctx, s, "resources", in, prompts.Resources(in), parseResources, FallbackResources)
}

// RunAll runs the four analyses concurrently. They share no mutable state.
func (s *Service) RunAll(ctx context.Context, in compliance.AnalysisInput) Report {
	var report Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { report.RootCause = s.RootCause(gctx, in); return nil })
	g.Go(func() error { report.Patterns = s.Patterns(gctx, in); return nil })
	g.Go(func() error { report.Impact = s.Impact(gctx, in); return nil })
	g.Go(func() error { report.Resources = s.Resources(gctx, in); return nil })
	_ = g.Wait()
	return report
}

func run[T any](ctx context.Context, s *Service, kind string, in compliance.AnalysisInput, req llm.Request,
	parse func(string) (T, error), fallback func(compliance.AnalysisInput) T) T {
	fields := map[string]any{"kind": kind, "contractor_id": in.ContractorID}

	cfg := s.provider.ResolveConfig(ctx)
	if !s.provider.Available(cfg) {
		metrics.IncAnalysis(kind, string(SourceFallback))
		return fallback(in)
	}

	raw, err := s.provider.Call(ctx, req, cfg)
	if err == nil {
		var out T
		out, err = parse(raw)
		if err == nil {
			metrics.IncAnalysis(kind, string(SourceAI))
			return out
		}
		fields["reason"] = "parse_error"
	} else {
		fields["reason"] = "provider_error"
	}
	fields["error"] = err
	telemetry.Warn("analysis.fallback", fields)
	metrics.IncAnalysis(kind, string(SourceFallback))
	return fallback(in)
}
