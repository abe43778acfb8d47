package analysis

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.handle(func(c *gin.Context, in compliance.AnalysisInput) any {
		return h.Svc.RunAll(c.Request.Context(), in)
	}))
	rg.POST("/analyses/root-cause", h.handle(func(c *gin.Context, in compliance.AnalysisInput) any {
		return h.Svc.RootCause(c.Request.Context(), in)
	}))
	rg.POST("/analyses/patterns", h.handle(func(c *gin.Context, in compliance.AnalysisInput) any {
		return h.Svc.Patterns(c.Request.Context(), in)
	}))
	rg.POST("/analyses/impact", h.handle(func(c *gin.Context, in compliance.AnalysisInput) any {
		return h.Svc.Impact(c.Request.Context(), in)
	}))
	rg.POST("/analyses/resources", h.handle(func(c *gin.Context, in compliance.AnalysisInput) any {
		return h.Svc.Resources(c.Request.Context(), in)
	}))
}

func (h *Handler) handle(fn func(*gin.Context, compliance.AnalysisInput) any) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in compliance.AnalysisInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
		c.Set(middleware.ContractorIDKey, in.ContractorID)
		respond.OK(c, fn(c, in))
	}
}
