package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"compliance-backend/internal/analysis"
	"compliance-backend/internal/compliance"
	"compliance-backend/internal/integrations"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// MetricsRecorder receives execution metrics after every attempt.
type MetricsRecorder interface {
	RecordExecution(ctx context.Context, actionID string, m ExecutionMetrics) error
}

// Executor runs single actions through their type handler.
type Executor struct {
	store        *Store
	integrations integrations.Set
	recorder     MetricsRecorder
	now          func() time.Time
	handlers     map[compliance.ActionType]handlerFunc
}

// NewExecutor builds an executor. recorder may be nil.
func NewExecutor(store *Store, set integrations.Set, recorder MetricsRecorder) *Executor {
	e := &Executor{store: store, integrations: set, recorder: recorder, now: time.Now}
	e.registerHandlers()
	return e
}

// Execute loads the action by id and executes it. A missing action yields a
// failed result rather than an error.
func (e *Executor) Execute(ctx context.Context, id string) ExecutionResult {
	a, err := e.store.Get(ctx, id)
	if err != nil {
		return notFoundResult(id, e.now().UTC(), err)
	}
	return e.ExecuteAction(ctx, a)
}

// ExecuteAction dispatches a to its handler and records the outcome. It never
// returns an error: every failure is reported as Success=false.
func (e *Executor) ExecuteAction(ctx context.Context, a Action) ExecutionResult {
	start := e.now()
	res := ExecutionResult{ActionID: a.ID, ExecutedAt: start.UTC()}

	payload, resources, execErr := e.run(ctx, a)
	elapsed := max(int64(0), e.now().Sub(start).Milliseconds())
	res.ExecutionTime = elapsed

	if execErr == nil {
		res.Success = true
		res.Result = payload
	} else {
		msg := execErr.Error()
		var ee *ExecutionError
		if errors.As(execErr, &ee) {
			msg = ee.Err.Error()
		}
		res.Error = &msg
	}
	res.Metrics = buildMetrics(a, elapsed, resources, execErr)

	if e.recorder != nil {
		if err := e.recorder.RecordExecution(ctx, a.ID, res.Metrics); err != nil {
			telemetry.Warn("action.metrics.record_failed", map[string]any{"action_id": a.ID, "error": err})
		}
	}
	metrics.ObserveActionExecution(string(a.Type), res.Success, elapsed)
	fields := map[string]any{
		"action_id":   a.ID,
		"action_type": string(a.Type),
		"success":     res.Success,
		"duration_ms": elapsed,
	}
	if res.Error != nil {
		fields["error"] = *res.Error
		telemetry.Warn("action.executed", fields)
	} else {
		telemetry.Info("action.executed", fields)
	}
	return res
}

func (e *Executor) run(ctx context.Context, a Action) (json.RawMessage, []string, error) {
	handler, ok := e.handlers[a.Type]
	if !ok {
		err := &ExecutionError{ActionID: a.ID, Err: fmt.Errorf("%w: %s", ErrUnsupportedActionType, a.Type)}
		if _, ferr := e.store.Fail(ctx, a.ID, err.Err.Error()); ferr != nil && !errors.Is(ferr, ErrActionNotFound) {
			telemetry.Warn("action.fail_record_failed", map[string]any{"action_id": a.ID, "error": ferr})
		}
		return nil, nil, err
	}

	// Terminal or paused actions are rejected without touching stored state.
	if _, err := e.store.Start(ctx, a.ID); err != nil {
		return nil, nil, &ExecutionError{ActionID: a.ID, Err: err}
	}

	out, herr := safeHandle(ctx, handler, a)
	if herr != nil {
		if _, err := e.store.Fail(ctx, a.ID, herr.Error()); err != nil {
			telemetry.Warn("action.fail_record_failed", map[string]any{"action_id": a.ID, "error": err})
		}
		return nil, out.resourcesUsed, &ExecutionError{ActionID: a.ID, Err: herr}
	}

	payload, err := json.Marshal(out.payload)
	if err != nil {
		herr = fmt.Errorf("encode result: %w", err)
		_, _ = e.store.Fail(ctx, a.ID, herr.Error())
		return nil, out.resourcesUsed, &ExecutionError{ActionID: a.ID, Err: herr}
	}
	if _, err := e.store.Complete(ctx, a.ID, payload); err != nil {
		return nil, out.resourcesUsed, &ExecutionError{ActionID: a.ID, Err: err}
	}
	return payload, out.resourcesUsed, nil
}

// safeHandle converts a handler panic into an error.
func safeHandle(ctx context.Context, h handlerFunc, a Action) (out outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, a)
}

func buildMetrics(a Action, elapsed int64, resources []string, execErr error) ExecutionMetrics {
	if resources == nil {
		resources = []string{}
	}
	m := ExecutionMetrics{
		TimeToExecute:  elapsed,
		ResourcesUsed:  resources,
		ActualImpact:   a.Impact,
		LessonsLearned: []string{},
	}
	if execErr != nil {
		m.ActualImpact = analysis.ImpactAssessment{
			ProjectImpact: analysis.ImpactLow,
			QualityImpact: analysis.ImpactLow,
			SafetyImpact:  analysis.ImpactLow,
			Source:        a.Impact.Source,
		}
		m.LessonsLearned = append(m.LessonsLearned, "Execution failed: "+execErr.Error())
	}
	return m
}

func notFoundResult(id string, at time.Time, err error) ExecutionResult {
	msg := ErrActionNotFound.Error()
	if !errors.Is(err, ErrActionNotFound) {
		msg = err.Error()
	}
	return ExecutionResult{
		ActionID:   id,
		Success:    false,
		ExecutedAt: at,
		Error:      &msg,
		Metrics: ExecutionMetrics{
			ResourcesUsed:  []string{},
			LessonsLearned: []string{},
		},
	}
}
