package actions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"compliance-backend/internal/analysis"
	"compliance-backend/internal/compliance"
	"compliance-backend/internal/integrations"
	"compliance-backend/internal/shared/storage/kv"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return NewStore(kv.NewMemoryStore(), func() time.Time { return testNow })
}

func seedAction(t *testing.T, s *Store, id string, details Details) Action {
	t.Helper()
	a := Action{
		ID:        id,
		Type:      details.ActionType(),
		Title:     "Action " + id,
		Status:    StatusPending,
		Details:   details,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	require.NoError(t, s.Create(context.Background(), a))
	return a
}

type fakeAnalyzer struct {
	report analysis.Report
	calls  int
}

func (f *fakeAnalyzer) RunAll(_ context.Context, _ compliance.AnalysisInput) analysis.Report {
	f.calls++
	return f.report
}

type fakeCalendar struct {
	mu       sync.Mutex
	meetings []integrations.Meeting
	err      error
}

func (f *fakeCalendar) ScheduleMeeting(_ context.Context, m integrations.Meeting) (integrations.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return integrations.Receipt{}, f.err
	}
	f.meetings = append(f.meetings, m)
	return integrations.Receipt{Provider: "test-calendar", ExternalID: "evt-1"}, nil
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []integrations.EmailMessage
}

func (f *fakeEmail) Send(_ context.Context, msg integrations.EmailMessage) (integrations.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return integrations.Receipt{Provider: "test-email", ExternalID: "msg-1"}, nil
}

type recordedMetrics struct {
	mu   sync.Mutex
	byID map[string]ExecutionMetrics
	err  error
}

func (r *recordedMetrics) RecordExecution(_ context.Context, id string, m ExecutionMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byID == nil {
		r.byID = map[string]ExecutionMetrics{}
	}
	r.byID[id] = m
	return r.err
}

var errCalendarDown = errors.New("calendar down")
