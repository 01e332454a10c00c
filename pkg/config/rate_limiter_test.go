package config

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"todolists/internal/core/telemetry"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func newTestLimiter() *RateLimiter {
	metrics := telemetry.NewAppMetrics(prometheus.NewRegistry())
	return NewRateLimiter(zap.NewNop(), metrics, GetDefaultConfig().RateLimitConfigs)
}

func newLimitedRouter(rl *RateLimiter, method, path string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(rl.RateLimitMiddleware())

	router.Handle(method, path, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

func TestNewRateLimiter(t *testing.T) {
	RegisterTestingT(t)
	rl := newTestLimiter()

	Expect(rl.cache).ToNot(BeNil())
	Expect(rl.config).To(HaveKey("/signals"))
	Expect(rl.config).To(HaveKey("/lists"))
	Expect(rl.config).To(HaveKey(defaultRateLimitKey))
	Expect(rl.metrics).ToNot(BeNil())
}

func TestRateLimitMiddleware_PrefixLimit(t *testing.T) {
	RegisterTestingT(t)
	router := newLimitedRouter(newTestLimiter(), "POST", "/signals/boot")

	expectedRemaining := []int{29, 28, 27, 26, 25}

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/signals/boot", nil)
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("X-RateLimit-Limit")).To(Equal("30"))
		Expect(w.Header().Get("X-RateLimit-Remaining")).To(Equal(strconv.Itoa(expectedRemaining[i])))
	}
}

func TestRateLimitMiddleware_RouteParamsShareBucket(t *testing.T) {
	RegisterTestingT(t)
	router := newLimitedRouter(newTestLimiter(), "GET", "/lists/:id")

	for i := 1; i <= 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/lists/"+strconv.Itoa(i), nil)
		router.ServeHTTP(w, req)

		Expect(w.Header().Get("X-RateLimit-Remaining")).To(Equal(strconv.Itoa(300 - i)))
	}
}

func TestRateLimitMiddleware_ExceedLimit(t *testing.T) {
	RegisterTestingT(t)
	router := newLimitedRouter(newTestLimiter(), "POST", "/signals/location")

	for i := 0; i < 35; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/signals/location", nil)
		router.ServeHTTP(w, req)

		if i < 30 {
			Expect(w.Code).To(Equal(http.StatusOK))
		} else {
			Expect(w.Code).To(Equal(http.StatusTooManyRequests))
		}
	}
}

func TestRateLimitMiddleware_DefaultLimit(t *testing.T) {
	RegisterTestingT(t)
	router := newLimitedRouter(newTestLimiter(), "GET", "/health")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Header().Get("X-RateLimit-Limit")).To(Equal("120"))
}

func TestRateLimitMiddleware_WindowReset(t *testing.T) {
	RegisterTestingT(t)
	rl := newTestLimiter()
	rl.SetConfig("/short", RateLimitEndpointConfig{Requests: 2, Window: 50 * time.Millisecond})
	router := newLimitedRouter(rl, "GET", "/short")

	codes := func() int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/short", nil)
		router.ServeHTTP(w, req)
		return w.Code
	}

	Expect(codes()).To(Equal(http.StatusOK))
	Expect(codes()).To(Equal(http.StatusOK))
	Expect(codes()).To(Equal(http.StatusTooManyRequests))

	time.Sleep(80 * time.Millisecond)

	Expect(codes()).To(Equal(http.StatusOK))
}

func TestRateLimiterGetStats(t *testing.T) {
	RegisterTestingT(t)
	rl := newTestLimiter()

	stats := rl.GetStats()
	Expect(stats["active_entries"]).To(Equal(0))
	Expect(stats["configs"]).To(Equal(4))
}

func TestRateLimitMiddleware_NoDoubleCounting(t *testing.T) {
	RegisterTestingT(t)
	router := newLimitedRouter(newTestLimiter(), "POST", "/notifications/actions/:token")

	numRequests := 10
	results := make([]int, numRequests)
	var wg sync.WaitGroup

	for i := 0; i < numRequests; i++ {
		index := i
		wg.Go(func() {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/notifications/actions/abc", nil)
			router.ServeHTTP(w, req)

			remaining, _ := strconv.Atoi(w.Header().Get("X-RateLimit-Remaining"))
			results[index] = remaining
		})
	}

	wg.Wait()

	expectedRemaining := []int{59, 58, 57, 56, 55, 54, 53, 52, 51, 50}
	sort.Ints(results)
	sort.Ints(expectedRemaining)

	Expect(results).To(Equal(expectedRemaining))
}
