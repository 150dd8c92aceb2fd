package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"chefly/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func rateLimitedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doPing(r *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-For", ip)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitHonorsConfiguredBudget(t *testing.T) {
	config.AppConfig.MaxRequestsPerMin = 2
	defer func() { config.AppConfig.MaxRequestsPerMin = 0 }()

	r := rateLimitedRouter()

	assert.Equal(t, http.StatusOK, doPing(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, doPing(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, doPing(r, "10.0.0.1"))
}

func TestRateLimitTracksClientsSeparately(t *testing.T) {
	config.AppConfig.MaxRequestsPerMin = 1
	defer func() { config.AppConfig.MaxRequestsPerMin = 0 }()

	r := rateLimitedRouter()

	assert.Equal(t, http.StatusOK, doPing(r, "10.0.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, doPing(r, "10.0.1.1"))

	// A different client keeps its own budget.
	assert.Equal(t, http.StatusOK, doPing(r, "10.0.1.2"))
}
