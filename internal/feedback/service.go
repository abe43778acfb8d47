// Package feedback stores user feedback and execution metrics for actions and
// forwards feedback to a learning sink.
package feedback

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/actions"
	"compliance-backend/internal/shared/storage/kv"
	"compliance-backend/internal/shared/telemetry"
)

const (
	feedbackPrefix = "feedback:"
	metricsPrefix  = "execution-metrics:"
)

// ActionLookup resolves actions so feedback can only target existing ones.
type ActionLookup interface {
	Get(ctx context.Context, id string) (actions.Action, error)
}

// Service stores feedback and execution metrics per action.
type Service struct {
	kv      kv.Store
	actions ActionLookup
	sink    LearningSink
	now     func() time.Time
}

// NewService constructs a Service. A nil sink uses NoopSink.
func NewService(store kv.Store, lookup ActionLookup, sink LearningSink) *Service {
	if sink == nil {
		sink = NoopSink{}
	}
	return &Service{kv: store, actions: lookup, sink: sink, now: time.Now}
}

// Submit validates and stores feedback, then hands it to the sink. A sink
// failure is logged and does not fail the submission.
func (s *Service) Submit(ctx context.Context, actionID string, in Input) (Feedback, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return Feedback{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidFeedback)
	}
	if in.Effectiveness < 0 || in.Effectiveness > 100 {
		return Feedback{}, fmt.Errorf("%w: effectiveness must be between 0 and 100", ErrInvalidFeedback)
	}
	if in.ActualTimeSpent < 0 {
		return Feedback{}, fmt.Errorf("%w: actualTimeSpent must not be negative", ErrInvalidFeedback)
	}
	if s.actions != nil {
		if _, err := s.actions.Get(ctx, actionID); err != nil {
			return Feedback{}, err
		}
	}

	fb := Feedback{
		ID:              uuid.NewString(),
		ActionID:        actionID,
		Rating:          in.Rating,
		Effectiveness:   in.Effectiveness,
		Comments:        in.Comments,
		WouldRecommend:  in.WouldRecommend,
		ActualTimeSpent: in.ActualTimeSpent,
		ActualImpact:    in.ActualImpact,
		Suggestions:     in.Suggestions,
		SubmittedBy:     in.SubmittedBy,
		CreatedAt:       s.now().UTC(),
	}
	if fb.Suggestions == nil {
		fb.Suggestions = []string{}
	}
	if err := kv.PutJSON(ctx, s.kv, feedbackPrefix+actionID+":"+fb.ID, fb); err != nil {
		return Feedback{}, fmt.Errorf("store feedback: %w", err)
	}
	if err := s.sink.Record(ctx, actionID, fb); err != nil {
		telemetry.Warn("learning.sink.failed", map[string]any{"action_id": actionID, "error": err})
	}
	return fb, nil
}

// List returns the action's feedback, oldest first, with its summary.
func (s *Service) List(ctx context.Context, actionID string) ([]Feedback, Summary, error) {
	items, err := kv.ListJSON[Feedback](ctx, s.kv, feedbackPrefix+actionID+":")
	if err != nil {
		return nil, Summary{}, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, Summarize(items), nil
}

// Summarize aggregates feedback. An empty slice yields a zero summary.
func Summarize(items []Feedback) Summary {
	if len(items) == 0 {
		return Summary{}
	}
	var rating, effectiveness, recommend int
	for _, fb := range items {
		rating += fb.Rating
		effectiveness += fb.Effectiveness
		if fb.WouldRecommend {
			recommend++
		}
	}
	n := float64(len(items))
	return Summary{
		Count:                len(items),
		AverageRating:        round2(float64(rating) / n),
		AverageEffectiveness: round2(float64(effectiveness) / n),
		RecommendRate:        round2(float64(recommend) * 100 / n),
	}
}

// RecordExecution stores execution metrics. It satisfies actions.MetricsRecorder.
func (s *Service) RecordExecution(ctx context.Context, actionID string, m actions.ExecutionMetrics) error {
	now := s.now().UTC()
	rec := ExecutionRecord{ActionID: actionID, Metrics: m, RecordedAt: now}
	key := fmt.Sprintf("%s%s:%020d", metricsPrefix, actionID, now.UnixNano())
	if err := kv.PutJSON(ctx, s.kv, key, rec); err != nil {
		return fmt.Errorf("store execution metrics: %w", err)
	}
	return nil
}

// Executions returns the metrics recorded for an action, oldest first.
func (s *Service) Executions(ctx context.Context, actionID string) ([]ExecutionRecord, error) {
	return kv.ListJSON[ExecutionRecord](ctx, s.kv, metricsPrefix+actionID+":")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ actions.MetricsRecorder = (*Service)(nil)
