package config

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

func serveThroughEnforcer(enabled bool, host string, headers map[string]string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewHTTPSEnforcer(enabled, zap.NewNop()).HTTPSMiddleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	req.Host = host
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	router.ServeHTTP(w, req)
	return w
}

func TestHTTPSEnforcer_Redirects(t *testing.T) {
	RegisterTestingT(t)

	w := serveThroughEnforcer(true, "todolists.example.com", nil)

	Expect(w.Code).To(Equal(http.StatusMovedPermanently))
	Expect(w.Header().Get("Location")).To(Equal("https://todolists.example.com/health"))
}

func TestHTTPSEnforcer_PassesThrough(t *testing.T) {
	RegisterTestingT(t)

	Expect(serveThroughEnforcer(false, "todolists.example.com", nil).Code).To(Equal(http.StatusOK))
	Expect(serveThroughEnforcer(true, "localhost:8080", nil).Code).To(Equal(http.StatusOK))
	Expect(serveThroughEnforcer(true, "todolists.example.com", map[string]string{
		"X-Forwarded-Proto": "https",
	}).Code).To(Equal(http.StatusOK))
}

func TestHTTPSEnforcer_RedirectKeepsQuery(t *testing.T) {
	RegisterTestingT(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewHTTPSEnforcer(true, zap.NewNop()).HTTPSMiddleware())
	router.GET("/jobs", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/jobs?limit=5", nil)
	req.RequestURI = ""
	req.Host = "todolists.example.com"

	router.ServeHTTP(w, req)

	Expect(w.Code).To(Equal(http.StatusMovedPermanently))
	Expect(w.Header().Get("Location")).To(Equal("https://todolists.example.com/jobs?limit=5"))
}
