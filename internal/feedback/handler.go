package feedback

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/actions"
	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the feedback service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches feedback routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/actions/:id/feedback", h.submit)
	rg.GET("/actions/:id/feedback", h.list)
	rg.GET("/actions/:id/executions", h.executions)
}

func (h *Handler) submit(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ActionIDKey, id)

	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	fb, err := h.Svc.Submit(c.Request.Context(), id, in)
	switch {
	case errors.Is(err, ErrInvalidFeedback):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	case errors.Is(err, actions.ErrActionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
		return
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, fb)
}

func (h *Handler) list(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ActionIDKey, id)
	items, summary, err := h.Svc.List(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		return
	}
	respond.OK(c, gin.H{"items": items, "summary": summary})
}

func (h *Handler) executions(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ActionIDKey, id)
	items, err := h.Svc.Executions(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		return
	}
	respond.OK(c, gin.H{"items": items})
}
