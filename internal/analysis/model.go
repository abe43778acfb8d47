package analysis

// Source tells whether a result came from the provider or the local fallback.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// PatternType classifies a root cause.
type PatternType string

const (
	PatternRecurring       PatternType = "recurring"
	PatternIsolated        PatternType = "isolated"
	PatternSystemic        PatternType = "systemic"
	PatternResourceRelated PatternType = "resource-related"
)

// IsValid reports whether p is a known pattern type.
func (p PatternType) IsValid() bool {
	switch p {
	case PatternRecurring, PatternIsolated, PatternSystemic, PatternResourceRelated:
		return true
	}
	return false
}

// ImpactLevel is the four-level impact scale.
type ImpactLevel string

const (
	ImpactCritical ImpactLevel = "critical"
	ImpactHigh     ImpactLevel = "high"
	ImpactMedium   ImpactLevel = "medium"
	ImpactLow      ImpactLevel = "low"
)

// IsValid reports whether l is on the scale.
func (l ImpactLevel) IsValid() bool {
	switch l {
	case ImpactCritical, ImpactHigh, ImpactMedium, ImpactLow:
		return true
	}
	return false
}

// Trend of a recognized pattern over time.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// IsValid reports whether t is a known trend.
func (t Trend) IsValid() bool {
	switch t {
	case TrendIncreasing, TrendStable, TrendDecreasing:
		return true
	}
	return false
}

// RootCauseAnalysis explains why documents are missing.
type RootCauseAnalysis struct {
	PrimaryCause        string      `json:"primaryCause"`
	ContributingFactors []string    `json:"contributingFactors"`
	PatternType         PatternType `json:"patternType"`
	Confidence          int         `json:"confidence"`
	Source              Source      `json:"source"`
}

// Pattern is one recurring behaviour found in a contractor history.
type Pattern struct {
	Description         string   `json:"description"`
	Frequency           int      `json:"frequency"`
	AffectedContractors []string `json:"affectedContractors"`
	Trend               Trend    `json:"trend"`
	Confidence          int      `json:"confidence"`
}

// PatternAnalysis groups the detected patterns.
type PatternAnalysis struct {
	Patterns []Pattern `json:"patterns"`
	Source   Source    `json:"source"`
}

// ImpactAssessment grades the effect of unresolved issues on the project.
type ImpactAssessment struct {
	ProjectImpact  ImpactLevel `json:"projectImpact"`
	TimelineImpact int         `json:"timelineImpact"`
	CostImpact     int         `json:"costImpact"`
	QualityImpact  ImpactLevel `json:"qualityImpact"`
	SafetyImpact   ImpactLevel `json:"safetyImpact"`
	Source         Source      `json:"source"`
}

// ResourceOptimization suggests how to allocate people and budget.
type ResourceOptimization struct {
	RecommendedResources  []string `json:"recommendedResources"`
	AllocationEfficiency  int      `json:"allocationEfficiency"`
	Bottlenecks           []string `json:"bottlenecks"`
	OptimizationPotential int      `json:"optimizationPotential"`
	Source                Source   `json:"source"`
}

// Report bundles the four analyses run together.
type Report struct {
	RootCause RootCauseAnalysis    `json:"rootCause"`
	Patterns  PatternAnalysis      `json:"patterns"`
	Impact    ImpactAssessment     `json:"impact"`
	Resources ResourceOptimization `json:"resources"`
}
