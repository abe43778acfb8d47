package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

const (
	rateGroupDefault  = "DEFAULT"
	rateGroupProvider = "PROVIDER"
)

// RouteRegistrar is implemented by every domain handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps holds the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config                 config.Config
	RecommendationsHandler RouteRegistrar
	AnalysisHandler        RouteRegistrar
	ActionsHandler         RouteRegistrar
	FeedbackHandler        RouteRegistrar
	ConfigHandler          RouteRegistrar
	RateLimiter            *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault:  {Rate: 20, Burst: 40},
				rateGroupProvider: {Rate: 1, Burst: 5},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	for _, h := range []RouteRegistrar{
		deps.RecommendationsHandler,
		deps.AnalysisHandler,
		deps.ActionsHandler,
		deps.FeedbackHandler,
		deps.ConfigHandler,
	} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}
	return r
}

// rateGroupFor puts every route that may call a text-generation provider in
// the stricter group.
func rateGroupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return rateGroupDefault
	}
	switch c.FullPath() {
	case "/api/v1/recommendations",
		"/api/v1/analyses",
		"/api/v1/analyses/root-cause",
		"/api/v1/analyses/patterns",
		"/api/v1/analyses/impact",
		"/api/v1/analyses/resources",
		"/api/v1/actions":
		return rateGroupProvider
	}
	return rateGroupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
