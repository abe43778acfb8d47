package actions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-backend/internal/integrations"
	"compliance-backend/internal/queue"
	"compliance-backend/internal/shared/storage/kv"
)

type fakeQueue struct {
	sent []queue.Message
	err  error
}

func (f *fakeQueue) Send(_ context.Context, msg queue.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestRouter(t *testing.T, q queue.Client) (*gin.Engine, *Store, *BatchRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := newTestStore()
	exec := NewExecutor(store, integrations.Set{}, nil)
	repo := NewBatchRepo(kv.NewMemoryStore())
	svc := NewService(store, &fakeAnalyzer{report: testReport()})
	h := NewHandler(svc, exec, NewBatchExecutor(exec), repo, q)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, store, repo
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndExecute(t *testing.T) {
	r, _, _ := newTestRouter(t, nil)

	rec := do(r, http.MethodPost, "/api/v1/actions", `{"recommendation":{"message":"Send reminder","actionType":"email"},"analysis":{"contractorId":"c1","contractorName":"Acme"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created Action
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, StatusPending, created.Status)
	_, ok := created.Details.(EmailDetails)
	assert.True(t, ok)

	rec = do(r, http.MethodPost, "/api/v1/actions/"+created.ID+"/execute", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res ExecutionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)

	rec = do(r, http.MethodGet, "/api/v1/actions?status=completed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []Action `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, created.ID, list.Items[0].ID)
}

func TestHandlerNotFoundAndValidation(t *testing.T) {
	r, _, _ := newTestRouter(t, nil)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/actions/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/actions/missing/execute", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/v1/actions?status=bogus", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/v1/actions", `{"recommendation":{"message":"x","actionType":"fax"}}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/action-batches/missing", "").Code)
}

func TestHandlerCancelPauseResume(t *testing.T) {
	r, store, _ := newTestRouter(t, nil)
	seedAction(t, store, "a1", EmailDetails{})

	var body struct {
		Success bool `json:"success"`
	}
	rec := do(r, http.MethodPost, "/api/v1/actions/a1/pause", `{"reason":"waiting"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)

	rec = do(r, http.MethodPost, "/api/v1/actions/a1/resume", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)

	rec = do(r, http.MethodPost, "/api/v1/actions/a1/cancel", `{"reason":"dup"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)

	rec = do(r, http.MethodPost, "/api/v1/actions/a1/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
}

func TestHandlerInlineBatch(t *testing.T) {
	r, store, _ := newTestRouter(t, nil)
	seedAction(t, store, "a1", EmailDetails{})

	rec := do(r, http.MethodPost, "/api/v1/action-batches", `{"actionIds":["a1","ghost"],"executionMode":"sequential","failureMode":"continue_on_error"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.TotalActions)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Failed)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/v1/action-batches", `{"actionIds":[]}`).Code)
}

func TestHandlerAsyncBatchEnqueues(t *testing.T) {
	q := &fakeQueue{}
	r, _, repo := newTestRouter(t, q)

	rec := do(r, http.MethodPost, "/api/v1/action-batches", `{"actionIds":["a1"],"executionMode":"parallel","failureMode":"stop_on_first","async":true}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var body struct {
		BatchID string `json:"batchId"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "queued", body.Status)
	require.Len(t, q.sent, 1)
	assert.Equal(t, body.BatchID, q.sent[0].BatchID)
	assert.Equal(t, "parallel", q.sent[0].ExecutionMode)

	stored, err := repo.Get(context.Background(), body.BatchID)
	require.NoError(t, err)
	assert.Equal(t, BatchQueued, stored.Status)

	rec = do(r, http.MethodGet, "/api/v1/action-batches/"+body.BatchID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerAsyncBatchWithoutQueue(t *testing.T) {
	r, _, _ := newTestRouter(t, nil)
	rec := do(r, http.MethodPost, "/api/v1/action-batches", `{"actionIds":["a1"],"async":true}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	r, _, _ = newTestRouter(t, &fakeQueue{err: errors.New("sqs down")})
	rec = do(r, http.MethodPost, "/api/v1/action-batches", `{"actionIds":["a1"],"async":true}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
