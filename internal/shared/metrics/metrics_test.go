package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(recommendationsTotal.WithLabelValues("fallback"))
	IncRecommendations("fallback")
	assert.Equal(t, before+1, testutil.ToFloat64(recommendationsTotal.WithLabelValues("fallback")))

	before = testutil.ToFloat64(actionExecutionsTotal.WithLabelValues("email", "failure"))
	ObserveActionExecution("email", false, -5)
	assert.Equal(t, before+1, testutil.ToFloat64(actionExecutionsTotal.WithLabelValues("email", "failure")))
}

func TestHandlerServesExposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ObserveProviderRequest("openai", "ok", 120*time.Millisecond)

	router := gin.New()
	router.GET("/metrics", Handler())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "compliance_provider_requests_total")
}
