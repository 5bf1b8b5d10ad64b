package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBlocksWithinWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cache, err := lru.New[string, time.Time](16)
	require.NoError(t, err)
	limiter := &rateLimiter{window: 10 * time.Second, last: cache}

	c1, _ := gin.CreateTestContext(httptest.NewRecorder())
	c1.Request = httptest.NewRequest("GET", "/api/v1/public/shares/tok/download", nil)
	limiter.handle(c1)
	require.False(t, c1.IsAborted())

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest("GET", "/api/v1/public/shares/tok/download", nil)
	limiter.handle(c2)
	require.True(t, c2.IsAborted())
}

func TestRateLimiterDisabledWithZeroWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cache, err := lru.New[string, time.Time](16)
	require.NoError(t, err)
	limiter := &rateLimiter{window: 0, last: cache}

	for i := 0; i < 3; i++ {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/v1/public/shares/tok/download", nil)
		limiter.handle(c)
		require.False(t, c.IsAborted())
	}
}
