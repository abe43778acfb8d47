package analysis

import (
	"fmt"
	"strings"

	"compliance-backend/internal/llm"
)

const defaultConfidence = 75

func parseRootCause(raw string) (RootCauseAnalysis, error) {
	var body struct {
		PrimaryCause        string   `json:"primaryCause"`
		ContributingFactors []string `json:"contributingFactors"`
		PatternType         string   `json:"patternType"`
		Confidence          *int     `json:"confidence"`
	}
	if err := llm.DecodeReply("root-cause", raw, &body); err != nil {
		return RootCauseAnalysis{}, err
	}
	pt := PatternType(strings.ToLower(strings.TrimSpace(body.PatternType)))
	if strings.TrimSpace(body.PrimaryCause) == "" || !pt.IsValid() {
		return RootCauseAnalysis{}, &llm.ParseError{Kind: "root-cause", Err: fmt.Errorf("missing primaryCause or invalid patternType %q", body.PatternType)}
	}
	factors := body.ContributingFactors
	if factors == nil {
		factors = []string{}
	}
	return RootCauseAnalysis{
		PrimaryCause:        strings.TrimSpace(body.PrimaryCause),
		ContributingFactors: factors,
		PatternType:         pt,
		Confidence:          confidenceOr(body.Confidence),
		Source:              SourceAI,
	}, nil
}

func parsePatterns(raw string) (PatternAnalysis, error) {
	var body struct {
		Patterns *[]struct {
			Description         string   `json:"description"`
			Frequency           int      `json:"frequency"`
			AffectedContractors []string `json:"affectedContractors"`
			Trend               string   `json:"trend"`
			Confidence          *int     `json:"confidence"`
		} `json:"patterns"`
	}
	if err := llm.DecodeReply("patterns", raw, &body); err != nil {
		return PatternAnalysis{}, err
	}
	if body.Patterns == nil {
		return PatternAnalysis{}, &llm.ParseError{Kind: "patterns", Err: fmt.Errorf("missing patterns array")}
	}
	out := PatternAnalysis{Patterns: make([]Pattern, 0, len(*body.Patterns)), Source: SourceAI}
	for _, p := range *body.Patterns {
		trend := Trend(strings.ToLower(strings.TrimSpace(p.Trend)))
		if !trend.IsValid() {
			trend = TrendStable
		}
		contractors := p.AffectedContractors
		if contractors == nil {
			contractors = []string{}
		}
		out.Patterns = append(out.Patterns, Pattern{
			Description:         strings.TrimSpace(p.Description),
			Frequency:           max(0, p.Frequency),
			AffectedContractors: contractors,
			Trend:               trend,
			Confidence:          confidenceOr(p.Confidence),
		})
	}
	return out, nil
}

func parseImpact(raw string) (ImpactAssessment, error) {
	var body struct {
		ProjectImpact  string `json:"projectImpact"`
		TimelineImpact int    `json:"timelineImpact"`
		CostImpact     int    `json:"costImpact"`
		QualityImpact  string `json:"qualityImpact"`
		SafetyImpact   string `json:"safetyImpact"`
	}
	if err := llm.DecodeReply("impact", raw, &body); err != nil {
		return ImpactAssessment{}, err
	}
	project := ImpactLevel(strings.ToLower(strings.TrimSpace(body.ProjectImpact)))
	if !project.IsValid() {
		return ImpactAssessment{}, &llm.ParseError{Kind: "impact", Err: fmt.Errorf("invalid projectImpact %q", body.ProjectImpact)}
	}
	return ImpactAssessment{
		ProjectImpact:  project,
		TimelineImpact: max(0, body.TimelineImpact),
		CostImpact:     max(0, body.CostImpact),
		QualityImpact:  levelOr(body.QualityImpact, project),
		SafetyImpact:   levelOr(body.SafetyImpact, ImpactLow),
		Source:         SourceAI,
	}, nil
}

func parseResources(raw string) (ResourceOptimization, error) {
	var body struct {
		RecommendedResources  []string `json:"recommendedResources"`
		AllocationEfficiency  *int     `json:"allocationEfficiency"`
		Bottlenecks           []string `json:"bottlenecks"`
		OptimizationPotential *int     `json:"optimizationPotential"`
	}
	if err := llm.DecodeReply("resources", raw, &body); err != nil {
		return ResourceOptimization{}, err
	}
	if body.AllocationEfficiency == nil {
		return ResourceOptimization{}, &llm.ParseError{Kind: "resources", Err: fmt.Errorf("missing allocationEfficiency")}
	}
	out := ResourceOptimization{
		RecommendedResources: body.RecommendedResources,
		AllocationEfficiency: clampPct(*body.AllocationEfficiency),
		Bottlenecks:          body.Bottlenecks,
		Source:               SourceAI,
	}
	if body.OptimizationPotential != nil {
		out.OptimizationPotential = clampPct(*body.OptimizationPotential)
	}
	if out.RecommendedResources == nil {
		out.RecommendedResources = []string{}
	}
	if out.Bottlenecks == nil {
		out.Bottlenecks = []string{}
	}
	return out, nil
}

func confidenceOr(v *int) int {
	if v == nil {
		return defaultConfidence
	}
	return clampPct(*v)
}

func levelOr(raw string, def ImpactLevel) ImpactLevel {
	l := ImpactLevel(strings.ToLower(strings.TrimSpace(raw)))
	if l.IsValid() {
		return l
	}
	return def
}

func clampPct(v int) int {
	return min(100, max(0, v))
}
