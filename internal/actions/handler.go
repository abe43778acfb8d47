package actions

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/queue"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the action services.
type Handler struct {
	Svc      *Service
	Executor *Executor
	Batches  *BatchExecutor
	Repo     *BatchRepo
	Queue    queue.Client
}

// NewHandler constructs a Handler. q may be nil, which disables async batches.
func NewHandler(svc *Service, executor *Executor, batches *BatchExecutor, repo *BatchRepo, q queue.Client) *Handler {
	return &Handler{Svc: svc, Executor: executor, Batches: batches, Repo: repo, Queue: q}
}

// RegisterRoutes attaches action routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/actions", h.create)
	rg.GET("/actions", h.list)
	rg.GET("/actions/:id", h.get)
	rg.POST("/actions/:id/execute", h.execute)
	rg.POST("/actions/:id/cancel", h.cancel)
	rg.POST("/actions/:id/pause", h.pause)
	rg.POST("/actions/:id/resume", h.resume)
	rg.POST("/action-batches", h.createBatch)
	rg.GET("/action-batches/:id", h.getBatch)
}

func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set(middleware.ContractorIDKey, in.Analysis.ContractorID)

	a, err := h.Svc.CreateFromRecommendation(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.ActionIDKey, a.ID)
	respond.JSON(c, http.StatusCreated, a)
}

func (h *Handler) list(c *gin.Context) {
	f := Filter{Status: Status(c.Query("status")), Type: compliance.ActionType(c.Query("type"))}
	if f.Status != "" && !f.Status.IsValid() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown status", nil)
		return
	}
	if f.Type != "" && !f.Type.IsValid() {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown action type", nil)
		return
	}
	items, err := h.Svc.Store().List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ActionIDKey, id)
	a, err := h.Svc.Store().Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, a)
}

func (h *Handler) execute(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ActionIDKey, id)
	res := h.Executor.Execute(c.Request.Context(), id)
	if !res.Success && res.Error != nil && *res.Error == ErrActionNotFound.Error() {
		respond.Error(c, http.StatusNotFound, "not_found", ErrActionNotFound.Error(), nil)
		return
	}
	respond.OK(c, res)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancel(c *gin.Context) {
	h.toggle(c, "cancelled", func(id, reason string) (bool, error) {
		return h.Svc.Store().Cancel(c.Request.Context(), id, reason)
	})
}

func (h *Handler) pause(c *gin.Context) {
	h.toggle(c, "paused", func(id, reason string) (bool, error) {
		return h.Svc.Store().Pause(c.Request.Context(), id, reason)
	})
}

func (h *Handler) resume(c *gin.Context) {
	h.toggle(c, "resumed", func(id, _ string) (bool, error) {
		return h.Svc.Store().Resume(c.Request.Context(), id)
	})
}

func (h *Handler) toggle(c *gin.Context, transition string, fn func(id, reason string) (bool, error)) {
	id := c.Param("id")
	c.Set(middleware.ActionIDKey, id)

	var body reasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	ok, err := fn(id, body.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	if ok {
		c.Set(middleware.StatusTransitionKey, transition)
	}
	respond.OK(c, gin.H{"success": ok})
}

type batchRequest struct {
	BatchRequest
	Async bool `json:"async"`
}

func (h *Handler) createBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.ExecutionMode == "" {
		req.ExecutionMode = ModeSequential
	}
	if req.FailureMode == "" {
		req.FailureMode = ContinueOnError
	}
	if err := req.BatchRequest.Validate(); err != nil {
		writeError(c, err)
		return
	}

	batchID := uuid.NewString()
	c.Set(middleware.BatchIDKey, batchID)
	ctx := c.Request.Context()

	if !req.Async {
		res, err := h.Batches.ExecuteWithID(ctx, batchID, req.BatchRequest)
		if err != nil {
			writeError(c, err)
			return
		}
		respond.OK(c, res)
		return
	}

	if h.Queue == nil {
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "async batches are not configured", nil)
		return
	}
	if err := h.Repo.Save(ctx, BatchRecord{BatchID: batchID, Status: BatchQueued, Request: req.BatchRequest}); err != nil {
		writeError(c, err)
		return
	}
	msg := queue.Message{
		BatchID:        batchID,
		RequestID:      middleware.RequestIDFromContext(c),
		ActionIDs:      req.ActionIDs,
		ExecutionMode:  string(req.ExecutionMode),
		FailureMode:    string(req.FailureMode),
		MaxConcurrency: req.MaxConcurrency,
		EnqueuedAt:     time.Now().UTC().Format(time.RFC3339),
		Version:        queue.MessageVersion,
	}
	if err := h.Queue.Send(ctx, msg); err != nil {
		metrics.IncBatchJob("enqueue_failed")
		respond.Error(c, http.StatusBadGateway, "queue_error", "failed to enqueue batch", nil)
		return
	}
	metrics.IncBatchJob("enqueued")
	respond.JSON(c, http.StatusAccepted, gin.H{"batchId": batchID, "status": BatchQueued})
}

func (h *Handler) getBatch(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.BatchIDKey, id)
	rec, err := h.Repo.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, rec)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrActionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", ErrActionNotFound.Error(), nil)
	case errors.Is(err, ErrBatchNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", ErrBatchNotFound.Error(), nil)
	case errors.Is(err, ErrUnsupportedActionType), errors.Is(err, ErrInvalidAction), errors.Is(err, ErrInvalidBatch):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_transition", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}
