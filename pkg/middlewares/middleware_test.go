package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"todolists/internal/core/telemetry"
	"todolists/pkg/config"
	ct "todolists/pkg/context"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter(t *testing.T) (*gin.Engine, *prometheus.Registry) {
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewAppMetrics(registry)

	cfg := config.GetDefaultConfig()
	cfg.RateLimitEnabled = false

	router := gin.New()
	SetupGinMiddlewareWithConfig(router, "todolists-test", metrics, config.NewNopLogger(), cfg)

	router.GET("/lists/:id", func(c *gin.Context) {
		c.String(http.StatusOK, ct.RequestID(c.Request.Context()))
	})

	return router, registry
}

func TestCurrentMiddleware_GeneratesRequestID(t *testing.T) {
	RegisterTestingT(t)
	router, _ := newRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/lists/1", nil)
	router.ServeHTTP(w, req)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).NotTo(BeEmpty())
	Expect(w.Header().Get(RequestIDHeader)).To(Equal(w.Body.String()))
}

func TestCurrentMiddleware_KeepsClientRequestID(t *testing.T) {
	RegisterTestingT(t)
	router, _ := newRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/lists/1", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	router.ServeHTTP(w, req)

	Expect(w.Body.String()).To(Equal("req-42"))
	Expect(w.Header().Get(RequestIDHeader)).To(Equal("req-42"))
}

func TestMetricsMiddleware_LabelsNumericStatus(t *testing.T) {
	RegisterTestingT(t)
	router, registry := newRouter(t)

	for _, path := range []string{"/lists/1", "/lists/2", "/missing"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		router.ServeHTTP(w, req)
	}

	count, err := testutil.GatherAndCount(registry, "http_requests_total")
	Expect(err).NotTo(HaveOccurred())
	Expect(count).To(Equal(2))
}
