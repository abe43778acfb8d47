package actions

import (
	"context"
	"errors"
	"time"

	"compliance-backend/internal/shared/storage/kv"
)

const batchPrefix = "batch:"

// BatchStatus of a stored batch record.
type BatchStatus string

const (
	BatchQueued    BatchStatus = "queued"
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
)

// BatchRecord tracks an asynchronous batch from enqueue to result.
type BatchRecord struct {
	BatchID   string       `json:"batchId"`
	Status    BatchStatus  `json:"status"`
	Request   BatchRequest `json:"request"`
	Result    *BatchResult `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// BatchRepo persists batch records.
type BatchRepo struct {
	kv  kv.Store
	now func() time.Time
}

// NewBatchRepo stores batch records under the batch: prefix.
func NewBatchRepo(store kv.Store) *BatchRepo {
	return &BatchRepo{kv: store, now: time.Now}
}

// Save writes rec, stamping UpdatedAt and CreatedAt when unset.
func (r *BatchRepo) Save(ctx context.Context, rec BatchRecord) error {
	now := r.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	return kv.PutJSON(ctx, r.kv, batchPrefix+rec.BatchID, rec)
}

// Get returns the record or ErrBatchNotFound.
func (r *BatchRepo) Get(ctx context.Context, id string) (BatchRecord, error) {
	rec, err := kv.GetJSON[BatchRecord](ctx, r.kv, batchPrefix+id)
	if errors.Is(err, kv.ErrNotFound) {
		return BatchRecord{}, ErrBatchNotFound
	}
	return rec, err
}

// Run marks the batch running, executes it and stores the completed result.
func (r *BatchRepo) Run(ctx context.Context, batches *BatchExecutor, batchID string, req BatchRequest) (BatchResult, error) {
	rec, err := r.Get(ctx, batchID)
	if errors.Is(err, ErrBatchNotFound) {
		rec = BatchRecord{BatchID: batchID, Request: req}
	} else if err != nil {
		return BatchResult{}, err
	}
	rec.Status = BatchRunning
	if err := r.Save(ctx, rec); err != nil {
		return BatchResult{}, err
	}

	result, runErr := batches.ExecuteWithID(ctx, batchID, req)
	rec.Status = BatchCompleted
	if runErr != nil {
		rec.Error = runErr.Error()
	} else {
		rec.Result = &result
	}
	if err := r.Save(ctx, rec); err != nil {
		return result, err
	}
	return result, runErr
}
