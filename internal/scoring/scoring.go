// Package scoring computes action priority, timeline and success probability.
// Every function is pure and uses integer arithmetic so results are identical
// across runs and platforms. Rounding is half-up.
package scoring

import (
	"time"

	"compliance-backend/internal/analysis"
	"compliance-backend/internal/compliance"
)

// PriorityLevel is derived from the priority score.
type PriorityLevel string

const (
	LevelCritical PriorityLevel = "critical"
	LevelHigh     PriorityLevel = "high"
	LevelMedium   PriorityLevel = "medium"
	LevelLow      PriorityLevel = "low"
)

// LevelForScore maps a 0..100 score onto the fixed thresholds.
func LevelForScore(score int) PriorityLevel {
	switch {
	case score >= 80:
		return LevelCritical
	case score >= 60:
		return LevelHigh
	case score >= 40:
		return LevelMedium
	default:
		return LevelLow
	}
}

// PriorityFactors are the weighted inputs of a priority score.
type PriorityFactors struct {
	Urgency int `json:"urgency"`
	Impact  int `json:"impact"`
	Effort  int `json:"effort"`
	Risk    int `json:"risk"`
}

// ActionPriority is a scored priority level.
type ActionPriority struct {
	Score   int             `json:"score"`
	Factors PriorityFactors `json:"factors"`
	Level   PriorityLevel   `json:"level"`
}

var impactWeights = map[analysis.ImpactLevel]int{
	analysis.ImpactCritical: 90,
	analysis.ImpactHigh:     70,
	analysis.ImpactMedium:   50,
	analysis.ImpactLow:      30,
}

var patternRisk = map[analysis.PatternType]int{
	analysis.PatternSystemic:        90,
	analysis.PatternRecurring:       70,
	analysis.PatternResourceRelated: 50,
	analysis.PatternIsolated:        30,
}

// CalculatePriority scores an action from its analyses:
// round(urgency*0.3 + impact*0.3 + (100-effort)*0.2 + risk*0.2).
func CalculatePriority(rc analysis.RootCauseAnalysis, impact analysis.ImpactAssessment, res analysis.ResourceOptimization) ActionPriority {
	urgency := lookup(impactWeights, impact.ProjectImpact, 30)
	timeline := min(90, max(0, impact.TimelineImpact)*10)
	cost := min(90, max(0, impact.CostImpact)*2)
	impactSum := urgency + timeline + cost
	effort := 100 - clampPct(res.AllocationEfficiency)
	risk := lookup(patternRisk, rc.PatternType, 30)

	// Everything scaled by 10: 0.3*(sum/3) == sum/10.
	total := 3*urgency + impactSum + 2*(100-effort) + 2*risk
	score := clampPct(roundDiv(total, 10))
	return ActionPriority{
		Score: score,
		Factors: PriorityFactors{
			Urgency: urgency,
			Impact:  roundDiv(impactSum, 3),
			Effort:  effort,
			Risk:    risk,
		},
		Level: LevelForScore(score),
	}
}

// Milestone is a dated checkpoint within a timeline.
type Milestone struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DueDate   time.Time `json:"dueDate"`
	Completed bool      `json:"completed"`
}

// TimelinePlanning is the planned schedule of an action.
type TimelinePlanning struct {
	StartDate    time.Time   `json:"startDate"`
	EndDate      time.Time   `json:"endDate"`
	Milestones   []Milestone `json:"milestones"`
	Dependencies []string    `json:"dependencies"`
	BufferTime   int         `json:"bufferTime"`
}

// BaseDuration returns the working days an action type needs at a priority level.
func BaseDuration(t compliance.ActionType, level PriorityLevel) int {
	switch t {
	case compliance.ActionMeeting:
		if level == LevelCritical {
			return 1
		}
		return 2
	case compliance.ActionEmail:
		return 1
	case compliance.ActionEscalation:
		switch level {
		case LevelCritical:
			return 1
		case LevelHigh:
			return 2
		default:
			return 3
		}
	case compliance.ActionSupport:
		return 5
	case compliance.ActionTraining:
		return 10
	case compliance.ActionAudit:
		return 7
	case compliance.ActionReview:
		return 3
	default:
		return 3
	}
}

// buffer factor in tenths
var pressureBuffer = map[compliance.DeadlinePressure]int{
	compliance.PressureHigh:   2,
	compliance.PressureMedium: 3,
	compliance.PressureLow:    5,
}

// PlanTimeline lays out start, end and the two milestones from now.
// bufferTime = max(1, floor(duration*f(pressure))).
func PlanTimeline(t compliance.ActionType, level PriorityLevel, pc compliance.ProjectContext, now time.Time) TimelinePlanning {
	pc = pc.Normalized()
	duration := BaseDuration(t, level)
	buffer := max(1, duration*pressureBuffer[pc.DeadlinePressure]/10)
	end := now.AddDate(0, 0, duration+buffer)
	return TimelinePlanning{
		StartDate: now,
		EndDate:   end,
		Milestones: []Milestone{
			{ID: "start", Name: "Start", DueDate: now, Completed: false},
			{ID: "end", Name: "Complete", DueDate: end, Completed: false},
		},
		Dependencies: []string{},
		BufferTime:   buffer,
	}
}

// SuccessFactors are the inputs of a success estimate.
type SuccessFactors struct {
	HistoricalSuccess    int `json:"historicalSuccess"`
	ResourceAvailability int `json:"resourceAvailability"`
	StakeholderBuyIn     int `json:"stakeholderBuyIn"`
	Complexity           int `json:"complexity"`
}

// SuccessProbability is the estimated chance an action succeeds.
type SuccessProbability struct {
	Overall    int            `json:"overall"`
	Factors    SuccessFactors `json:"factors"`
	Confidence int            `json:"confidence"`
}

var historicalSuccess = map[compliance.ActionType]int{
	compliance.ActionMeeting:    75,
	compliance.ActionEmail:      60,
	compliance.ActionEscalation: 85,
	compliance.ActionSupport:    70,
	compliance.ActionTraining:   80,
	compliance.ActionAudit:      65,
	compliance.ActionReview:     70,
}

var stakeholderBuyIn = map[compliance.StakeholderVisibility]int{
	compliance.VisibilityRegulatory: 90,
	compliance.VisibilityClient:     80,
	compliance.VisibilityInternal:   60,
}

var complexityBase = map[compliance.ActionType]int{
	compliance.ActionEmail:      20,
	compliance.ActionMeeting:    30,
	compliance.ActionReview:     40,
	compliance.ActionSupport:    50,
	compliance.ActionEscalation: 60,
	compliance.ActionTraining:   70,
	compliance.ActionAudit:      80,
}

// complexity multiplier in tenths
var levelComplexity = map[PriorityLevel]int{
	LevelCritical: 15,
	LevelHigh:     12,
}

// EstimateSuccess computes round(historical*0.3 + resources*0.3 + buyIn*0.2 + (100-complexity)*0.2).
func EstimateSuccess(t compliance.ActionType, level PriorityLevel, pc compliance.ProjectContext, resourceAvailability int) SuccessProbability {
	pc = pc.Normalized()
	hist := lookup(historicalSuccess, t, 50)
	ra := clampPct(resourceAvailability)
	buyIn := stakeholderBuyIn[pc.StakeholderVisibility]

	mult := lookup(levelComplexity, level, 10)
	complexity10 := lookup(complexityBase, t, 50) * mult

	// Scaled by 100 so complexity keeps its tenths.
	total := 30*hist + 30*ra + 20*buyIn + 2*(1000-complexity10)
	return SuccessProbability{
		Overall: clampPct(roundDiv(total, 100)),
		Factors: SuccessFactors{
			HistoricalSuccess:    hist,
			ResourceAvailability: ra,
			StakeholderBuyIn:     buyIn,
			Complexity:           roundDiv(complexity10, 10),
		},
		Confidence: roundDiv(hist+ra+buyIn, 3),
	}
}

// roundDiv divides non-negative n by d rounding half up.
func roundDiv(n, d int) int {
	return (2*n + d) / (2 * d)
}

func clampPct(v int) int {
	return min(100, max(0, v))
}

func lookup[K comparable](m map[K]int, k K, def int) int {
	if v, ok := m[k]; ok {
		return v
	}
	return def
}
