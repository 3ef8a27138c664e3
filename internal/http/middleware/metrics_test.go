package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-horoscope-backend/internal/observability"
)

func TestMetrics_RecordsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/metrics-test/history/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	route := observability.HTTPRequests.WithLabelValues(http.MethodGet, "/metrics-test/history/:id", "200")
	before := testutil.ToFloat64(route)

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics-test/history/"+id, nil))
	}
	if got := testutil.ToFloat64(route) - before; got != 3 {
		t.Fatalf("route counter delta = %v; want 3", got)
	}

	miss := observability.HTTPRequests.WithLabelValues(http.MethodGet, "/metrics-test/missing", "404")
	before = testutil.ToFloat64(miss)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics-test/missing", nil))
	if got := testutil.ToFloat64(miss) - before; got != 1 {
		t.Fatalf("unmatched path should fall back to the raw URL, delta = %v", got)
	}

	if v := testutil.ToFloat64(observability.HTTPInflight); v != 0 {
		t.Fatalf("inflight = %v after requests finished", v)
	}
}
