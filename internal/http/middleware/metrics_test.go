package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountsByRoutePath(t *testing.T) {
	r := newEngine()
	r.Use(Metrics())
	r.GET("/widgets/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/widgets/:id", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/widgets/42", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	after := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/widgets/:id", "200"))
	if after != before+1 {
		t.Fatalf("counter = %v, want %v; label must be the route pattern, not the raw URL", after, before+1)
	}
}

func TestMetricsFallsBackToRawPath(t *testing.T) {
	r := newEngine()
	r.Use(Metrics())

	before := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	after := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404"))
	if after != before+1 {
		t.Fatalf("counter = %v, want %v for an unmatched route", after, before+1)
	}
}
