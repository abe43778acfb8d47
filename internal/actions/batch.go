package actions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// BatchExecutor runs a set of actions under one mode and failure policy.
type BatchExecutor struct {
	executor *Executor
	now      func() time.Time
}

// NewBatchExecutor runs batches through executor.
func NewBatchExecutor(executor *Executor) *BatchExecutor {
	return &BatchExecutor{executor: executor, now: time.Now}
}

// Execute runs req under a fresh batch id.
func (b *BatchExecutor) Execute(ctx context.Context, req BatchRequest) (BatchResult, error) {
	return b.ExecuteWithID(ctx, uuid.NewString(), req)
}

// ExecuteWithID runs req and reports under batchID. Per-action failures are
// recorded in the results; only an invalid request returns an error.
func (b *BatchExecutor) ExecuteWithID(ctx context.Context, batchID string, req BatchRequest) (BatchResult, error) {
	if err := req.Validate(); err != nil {
		return BatchResult{}, err
	}
	start := b.now()

	var results []ExecutionResult
	if req.ExecutionMode == ModeParallel {
		results = b.parallel(ctx, req)
	} else {
		results = b.sequential(ctx, req)
	}
	end := b.now()

	out := BatchResult{
		BatchID:       batchID,
		TotalActions:  len(results),
		Results:       results,
		StartTime:     start.UTC(),
		EndTime:       end.UTC(),
		TotalDuration: max(int64(0), end.Sub(start).Milliseconds()),
	}
	for _, r := range results {
		if r.Success {
			out.Successful++
		} else {
			out.Failed++
		}
	}

	metrics.IncBatchExecution(string(req.ExecutionMode))
	telemetry.Info("action.batch.completed", map[string]any{
		"batch_id":     batchID,
		"mode":         string(req.ExecutionMode),
		"failure_mode": string(req.FailureMode),
		"requested":    len(req.ActionIDs),
		"executed":     out.TotalActions,
		"successful":   out.Successful,
		"failed":       out.Failed,
		"duration_ms":  out.TotalDuration,
	})
	return out, nil
}

func (b *BatchExecutor) sequential(ctx context.Context, req BatchRequest) []ExecutionResult {
	results := make([]ExecutionResult, 0, len(req.ActionIDs))
	for _, id := range req.ActionIDs {
		r := b.executor.Execute(ctx, id)
		results = append(results, r)
		if !r.Success && req.FailureMode == StopOnFirst {
			break
		}
	}
	return results
}

// parallel fans out every action and joins before returning. Results keep
// request order. The failure mode does not stop dispatched work.
func (b *BatchExecutor) parallel(ctx context.Context, req BatchRequest) []ExecutionResult {
	results := make([]ExecutionResult, len(req.ActionIDs))
	var sem chan struct{}
	if req.MaxConcurrency > 0 {
		sem = make(chan struct{}, req.MaxConcurrency)
	}

	var wg sync.WaitGroup
	for i, id := range req.ActionIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			results[i] = b.executor.Execute(ctx, id)
		}(i, id)
	}
	wg.Wait()
	return results
}
