package feedback

import (
	"time"

	"compliance-backend/internal/actions"
	"compliance-backend/internal/analysis"
)

// Feedback is a user's assessment of an executed action.
type Feedback struct {
	ID              string                    `json:"id"`
	ActionID        string                    `json:"actionId"`
	Rating          int                       `json:"rating"`
	Effectiveness   int                       `json:"effectiveness"`
	Comments        string                    `json:"comments,omitempty"`
	WouldRecommend  bool                      `json:"wouldRecommend"`
	ActualTimeSpent int                       `json:"actualTimeSpent"`
	ActualImpact    analysis.ImpactAssessment `json:"actualImpact"`
	Suggestions     []string                  `json:"suggestions"`
	SubmittedBy     string                    `json:"submittedBy,omitempty"`
	CreatedAt       time.Time                 `json:"createdAt"`
}

// Input is the writable part of Feedback. ActualTimeSpent is in minutes.
type Input struct {
	Rating          int                       `json:"rating"`
	Effectiveness   int                       `json:"effectiveness"`
	Comments        string                    `json:"comments"`
	WouldRecommend  bool                      `json:"wouldRecommend"`
	ActualTimeSpent int                       `json:"actualTimeSpent"`
	ActualImpact    analysis.ImpactAssessment `json:"actualImpact"`
	Suggestions     []string                  `json:"suggestions"`
	SubmittedBy     string                    `json:"submittedBy"`
}

// Summary aggregates all feedback for one action. Averages are rounded to two decimals.
type Summary struct {
	Count                int     `json:"count"`
	AverageRating        float64 `json:"averageRating"`
	AverageEffectiveness float64 `json:"averageEffectiveness"`
	RecommendRate        float64 `json:"recommendRate"`
}

// ExecutionRecord is one stored execution metrics sample.
type ExecutionRecord struct {
	ActionID   string                   `json:"actionId"`
	Metrics    actions.ExecutionMetrics `json:"metrics"`
	RecordedAt time.Time                `json:"recordedAt"`
}
