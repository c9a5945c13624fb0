package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kenerlee/navix-server/config"
)

func TestRateLimit_BurstThenRejects(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 3}))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimit_NoBackgroundGoroutine(t *testing.T) {
	before := runtime.NumGoroutine()

	for i := 0; i < 10; i++ {
		_ = RateLimit(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 1})
	}
	runtime.Gosched()

	assert.LessOrEqual(t, runtime.NumGoroutine(), before)
}
