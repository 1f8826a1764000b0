package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngocthuan/blog-api/internal/config"
)

func rateLimitRequest(mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:50000"
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	_ = mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	return rec
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{Enabled: true, Limit: 2, Window: time.Minute, Prefix: "rl"}
	mw := RateLimit(cfg, rdb)

	for i := 0; i < 2; i++ {
		rec := rateLimitRequest(mw)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := rateLimitRequest(mw)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitWindowExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute, Prefix: "rl"}
	mw := RateLimit(cfg, rdb)

	require.Equal(t, http.StatusOK, rateLimitRequest(mw).Code)
	require.Equal(t, http.StatusTooManyRequests, rateLimitRequest(mw).Code)

	// counter keys expire with the window
	mr.FastForward(2 * time.Minute)
	assert.Empty(t, mr.Keys())
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: false}
	mw := RateLimit(cfg, nil)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, rateLimitRequest(mw).Code)
	}
}

func TestRateLimitRedisDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	cfg := config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute, Prefix: "rl"}
	mw := RateLimit(cfg, rdb)

	assert.Equal(t, http.StatusOK, rateLimitRequest(mw).Code)
	assert.Equal(t, http.StatusOK, rateLimitRequest(mw).Code)
}
