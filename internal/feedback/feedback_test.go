package feedback

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"compliance-backend/internal/actions"
	"compliance-backend/internal/analysis"
	"compliance-backend/internal/shared/storage/kv"
	"compliance-backend/internal/shared/telemetry"
)

type lookup map[string]bool

func (l lookup) Get(_ context.Context, id string) (actions.Action, error) {
	if !l[id] {
		return actions.Action{}, actions.ErrActionNotFound
	}
	return actions.Action{ID: id}, nil
}

type captureSink struct {
	got []Feedback
	err error
}

func (c *captureSink) Record(_ context.Context, _ string, fb Feedback) error {
	c.got = append(c.got, fb)
	return c.err
}

func newTestService(sink LearningSink) *Service {
	svc := NewService(kv.NewMemoryStore(), lookup{"a1": true}, sink)
	tick := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return svc
}

func TestSubmitValidatesRanges(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	for _, in := range []Input{
		{Rating: 0, Effectiveness: 50},
		{Rating: 6, Effectiveness: 50},
		{Rating: 3, Effectiveness: -1},
		{Rating: 3, Effectiveness: 50, ActualTimeSpent: -5},
		{Rating: 3, Effectiveness: 101},
	} {
		_, err := svc.Submit(ctx, "a1", in)
		require.ErrorIs(t, err, ErrInvalidFeedback, "input %+v", in)
	}

	_, err := svc.Submit(ctx, "missing", Input{Rating: 3, Effectiveness: 50})
	require.ErrorIs(t, err, actions.ErrActionNotFound)
}

func TestSubmitStoresAndForwardsToSink(t *testing.T) {
	sink := &captureSink{err: errors.New("pipeline offline")}
	svc := newTestService(sink)
	ctx := context.Background()

	impact := analysis.ImpactAssessment{ProjectImpact: analysis.ImpactMedium, TimelineImpact: 2, QualityImpact: analysis.ImpactMedium, SafetyImpact: analysis.ImpactLow}
	_, err := svc.Submit(ctx, "a1", Input{
		Rating:          5,
		Effectiveness:   90,
		WouldRecommend:  true,
		ActualTimeSpent: 45,
		ActualImpact:    impact,
		Suggestions:     []string{"invite the safety lead", "send agenda earlier"},
	})
	require.NoError(t, err, "sink errors must not fail submission")
	_, err = svc.Submit(ctx, "a1", Input{Rating: 2, Effectiveness: 35})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "a1", Input{Rating: 4, Effectiveness: 70, WouldRecommend: true})
	require.NoError(t, err)
	require.Len(t, sink.got, 3)
	assert.Equal(t, 45, sink.got[0].ActualTimeSpent)
	assert.Equal(t, impact, sink.got[0].ActualImpact)
	assert.Equal(t, []string{"invite the safety lead", "send agenda earlier"}, sink.got[0].Suggestions)
	assert.Equal(t, []string{}, sink.got[1].Suggestions)

	items, summary, err := svc.List(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 5, items[0].Rating)
	assert.Equal(t, 45, items[0].ActualTimeSpent)
	assert.Equal(t, impact, items[0].ActualImpact)
	assert.Equal(t, []string{"invite the safety lead", "send agenda earlier"}, items[0].Suggestions)
	assert.Equal(t, Summary{Count: 3, AverageRating: 3.67, AverageEffectiveness: 65, RecommendRate: 66.67}, summary)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestRecordExecutionAppends(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	m := actions.ExecutionMetrics{TimeToExecute: 12, ResourcesUsed: []string{"email:fallback"}, ActualImpact: analysis.ImpactAssessment{ProjectImpact: analysis.ImpactLow}}

	require.NoError(t, svc.RecordExecution(ctx, "a1", m))
	require.NoError(t, svc.RecordExecution(ctx, "a1", m))
	require.NoError(t, svc.RecordExecution(ctx, "a2", m))

	recs, err := svc.Executions(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].RecordedAt.Before(recs[1].RecordedAt))
	assert.Equal(t, int64(12), recs[0].Metrics.TimeToExecute)
}

func TestLogSinkEmitsEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := telemetry.SetLogger(zap.New(core))
	defer restore()

	require.NoError(t, LogSink{}.Record(context.Background(), "a1", Feedback{ID: "f1", Rating: 4, ActualTimeSpent: 30, Suggestions: []string{"shorter agenda"}}))
	entries := logs.FilterMessage("learning.feedback").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "a1", fields["action_id"])
	assert.EqualValues(t, 30, fields["actual_time_spent"])
}

func TestHandlerSubmitAndList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(newTestService(nil)).RegisterRoutes(r.Group("/api/v1"))

	post := func(path, body string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusCreated, post("/api/v1/actions/a1/feedback", `{"rating":4,"effectiveness":80,"wouldRecommend":true}`))
	assert.Equal(t, http.StatusBadRequest, post("/api/v1/actions/a1/feedback", `{"rating":9,"effectiveness":80}`))
	assert.Equal(t, http.StatusNotFound, post("/api/v1/actions/zz/feedback", `{"rating":4,"effectiveness":80}`))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/actions/a1/feedback", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Contains(t, rec.Body.String(), `"recommendRate":100`)
}
