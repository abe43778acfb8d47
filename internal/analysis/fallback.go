package analysis

import (
	"fmt"
	"sort"

	"compliance-backend/internal/compliance"
)

const (
	fallbackRootCauseConfidence  = 60
	fallbackPatternConfidence    = 50
	fallbackAllocationEfficiency = 60
	fallbackOptimization         = 25
	maxFallbackResources         = 3
	maxTimelineImpactDays        = 30
)

type overdueStats struct {
	count     int
	totalDays int
}

func statsFor(issues []compliance.CriticalIssue) overdueStats {
	var s overdueStats
	for _, issue := range issues {
		if issue.OverdueDays > 0 {
			s.count++
			s.totalDays += issue.OverdueDays
		}
	}
	return s
}

// FallbackRootCause classifies the cause from overdue counts and red-card levels.
func FallbackRootCause(in compliance.AnalysisInput) RootCauseAnalysis {
	stats := statsFor(in.Issues)
	level3 := 0
	for _, card := range in.RedCards {
		if card.WarningLevel == compliance.WarningOverdue {
			level3++
		}
	}

	out := RootCauseAnalysis{
		ContributingFactors: []string{},
		Confidence:          fallbackRootCauseConfidence,
		Source:              SourceFallback,
	}
	switch {
	case stats.count > 3:
		out.PatternType = PatternResourceRelated
		out.PrimaryCause = "Insufficient capacity to keep up with document submissions"
	case level3 > 0:
		out.PatternType = PatternSystemic
		out.PrimaryCause = "Compliance process breakdown with documents past their final deadline"
	default:
		out.PatternType = PatternIsolated
		out.PrimaryCause = "Isolated delay in document submission"
	}

	if stats.count > 0 {
		out.ContributingFactors = append(out.ContributingFactors, fmt.Sprintf("%d overdue document(s) totalling %d days", stats.count, stats.totalDays))
	}
	if level3 > 0 {
		out.ContributingFactors = append(out.ContributingFactors, fmt.Sprintf("%d red card(s) at the overdue level", level3))
	}
	if in.Context.DeadlinePressure == compliance.PressureHigh {
		out.ContributingFactors = append(out.ContributingFactors, "High deadline pressure")
	}
	return out
}

// FallbackPatterns summarizes historical records into at most one pattern.
func FallbackPatterns(in compliance.AnalysisInput) PatternAnalysis {
	if len(in.Historical) == 0 {
		return PatternAnalysis{Patterns: []Pattern{}, Source: SourceFallback}
	}

	records := make([]compliance.HistoricalRecord, len(in.Historical))
	copy(records, in.Historical)
	sort.SliceStable(records, func(i, j int) bool { return records[i].RecordedAt.Before(records[j].RecordedAt) })

	contractors := make([]string, 0)
	docTypes := map[string]struct{}{}
	seen := map[string]struct{}{}
	for _, r := range records {
		docTypes[r.DocumentTypeID+"|"+r.DocumentTypeName] = struct{}{}
		if r.ContractorID == "" {
			continue
		}
		if _, ok := seen[r.ContractorID]; !ok {
			seen[r.ContractorID] = struct{}{}
			contractors = append(contractors, r.ContractorID)
		}
	}

	return PatternAnalysis{
		Patterns: []Pattern{{
			Description:         fmt.Sprintf("%d overdue submissions across %d document type(s)", len(records), len(docTypes)),
			Frequency:           len(records),
			AffectedContractors: contractors,
			Trend:               trendOf(records),
			Confidence:          fallbackPatternConfidence,
		}},
		Source: SourceFallback,
	}
}

// trendOf compares total overdue days in the older and newer halves of records.
func trendOf(records []compliance.HistoricalRecord) Trend {
	if len(records) < 2 {
		return TrendStable
	}
	mid := len(records) / 2
	older, newer := 0, 0
	for i, r := range records {
		if i < mid {
			older += r.OverdueDays
		} else {
			newer += r.OverdueDays
		}
	}
	// Compare per-record averages without division: older/mid vs newer/(n-mid).
	lhs := newer * mid
	rhs := older * (len(records) - mid)
	switch {
	case lhs > rhs:
		return TrendIncreasing
	case lhs < rhs:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// FallbackImpact buckets project impact by overdue count and total overdue days.
func FallbackImpact(in compliance.AnalysisInput) ImpactAssessment {
	stats := statsFor(in.Issues)
	var level ImpactLevel
	switch {
	case stats.count > 5 || stats.totalDays > 30:
		level = ImpactCritical
	case stats.count > 3 || stats.totalDays > 15:
		level = ImpactHigh
	case stats.count > 1 || stats.totalDays > 7:
		level = ImpactMedium
	default:
		level = ImpactLow
	}

	timeline := stats.totalDays
	if timeline > maxTimelineImpactDays {
		timeline = maxTimelineImpactDays
	}
	return ImpactAssessment{
		ProjectImpact:  level,
		TimelineImpact: timeline,
		// round(total*0.5) for non-negative totals
		CostImpact:    (stats.totalDays + 1) / 2,
		QualityImpact: level,
		SafetyImpact:  stepDown(level),
		Source:        SourceFallback,
	}
}

func stepDown(l ImpactLevel) ImpactLevel {
	switch l {
	case ImpactCritical:
		return ImpactHigh
	case ImpactHigh:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// FallbackResources takes the first three available resources at fixed efficiency.
func FallbackResources(in compliance.AnalysisInput) ResourceOptimization {
	n := len(in.AvailableResources)
	if n > maxFallbackResources {
		n = maxFallbackResources
	}
	recommended := make([]string, n)
	copy(recommended, in.AvailableResources[:n])

	bottlenecks := []string{}
	if stats := statsFor(in.Issues); stats.count > 0 {
		bottlenecks = append(bottlenecks, fmt.Sprintf("%d document approval(s) overdue", stats.count))
	}
	return ResourceOptimization{
		RecommendedResources:  recommended,
		AllocationEfficiency:  fallbackAllocationEfficiency,
		Bottlenecks:           bottlenecks,
		OptimizationPotential: fallbackOptimization,
		Source:                SourceFallback,
	}
}
