package llm

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/server/respond"
	"compliance-backend/internal/shared/telemetry"
)

// Handler exposes provider configuration management.
type Handler struct {
	Repo *ConfigRepo
}

// NewHandler constructs a Handler.
func NewHandler(repo *ConfigRepo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches config routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ai-configs", h.list)
	rg.PUT("/ai-configs/:id", h.put)
}

func (h *Handler) list(c *gin.Context) {
	all, err := h.Repo.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list provider configs", nil)
		return
	}
	items := make([]Config, 0, len(all))
	for _, cfg := range all {
		items = append(items, cfg.Masked())
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) put(c *gin.Context) {
	var cfg Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cfg.ID = c.Param("id")
	if err := h.Repo.Save(c.Request.Context(), cfg); err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save provider config", nil)
		return
	}
	telemetry.Info("llm.config.saved", map[string]any{
		"config_id": cfg.ID,
		"provider":  string(cfg.Provider),
		"model":     cfg.Model,
		"enabled":   cfg.Enabled,
	})
	respond.OK(c, cfg.Masked())
}
