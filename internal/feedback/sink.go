package feedback

import (
	"context"

	"compliance-backend/internal/shared/telemetry"
)

// LearningSink receives every accepted feedback record.
type LearningSink interface {
	Record(ctx context.Context, actionID string, fb Feedback) error
}

// NoopSink discards feedback.
type NoopSink struct{}

func (NoopSink) Record(context.Context, string, Feedback) error { return nil }

// LogSink emits feedback as a structured log event.
type LogSink struct{}

func (LogSink) Record(_ context.Context, actionID string, fb Feedback) error {
	telemetry.Info("learning.feedback", map[string]any{
		"action_id":         actionID,
		"feedback_id":       fb.ID,
		"rating":            fb.Rating,
		"effectiveness":     fb.Effectiveness,
		"would_recommend":   fb.WouldRecommend,
		"actual_time_spent": fb.ActualTimeSpent,
		"actual_impact":     string(fb.ActualImpact.ProjectImpact),
		"suggestions":       fb.Suggestions,
	})
	return nil
}
