package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"compliance-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	restore := telemetry.SetLogger(zap.New(core))
	defer restore()

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.POST("/api/v1/actions/:id/execute", func(c *gin.Context) {
		c.Set(ActionIDKey, c.Param("id"))
		c.Set(ContractorIDKey, "contractor-1")
		c.Set(StatusTransitionKey, "pending->completed")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions/action-1/execute", nil)
	req.Header.Set("X-Request-Id", "req-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	entries := logs.FilterMessage("request.complete").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	for _, key := range []string{"request_id", "duration_ms", "status", "status_transition", "action_id", "contractor_id"} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "action-1", fields["action_id"])
	assert.Equal(t, "pending->completed", fields["status_transition"])
	assert.Equal(t, "/api/v1/actions/:id/execute", fields["route"])
}
