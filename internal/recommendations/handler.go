package recommendations

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the recommendation service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches recommendation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recommendations", h.create)
}

func (h *Handler) create(c *gin.Context) {
	var req compliance.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	for _, card := range req.RedCards {
		if !card.WarningLevel.IsValid() {
			respond.Error(c, http.StatusBadRequest, "validation_error", "warningLevel must be 1, 2 or 3", []map[string]string{
				{"field": "redCards.warningLevel", "issue": "out_of_range"},
			})
			return
		}
	}
	c.Set(middleware.ContractorIDKey, req.ContractorID)

	respond.OK(c, h.Svc.GetRecommendations(c.Request.Context(), req))
}
