package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/HSouheill/taskreward_backend/middleware"
)

func newLimitedEcho(limiter *middleware.RateLimiter) *echo.Echo {
	e := echo.New()
	e.Use(limiter.RateLimit())
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.POST("/withdraw", ok)
	e.GET("/dashboard", ok)
	return e
}

func hit(e *echo.Echo, method, path, ip string) int {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterBlocksBurstsPerEndpoint(t *testing.T) {
	limiter := middleware.NewRateLimiter().Limit("/withdraw", time.Hour, 2).BlockFor(time.Minute)
	e := newLimitedEcho(limiter)

	assert.Equal(t, http.StatusNoContent, hit(e, http.MethodPost, "/withdraw", "198.51.100.1"))
	assert.Equal(t, http.StatusNoContent, hit(e, http.MethodPost, "/withdraw", "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(e, http.MethodPost, "/withdraw", "198.51.100.1"))

	// The offending IP stays blocked everywhere; other clients are unaffected.
	assert.Equal(t, http.StatusTooManyRequests, hit(e, http.MethodGet, "/dashboard", "198.51.100.1"))
	assert.Equal(t, http.StatusNoContent, hit(e, http.MethodPost, "/withdraw", "198.51.100.2"))
}

func TestRateLimiterBlockExpires(t *testing.T) {
	limiter := middleware.NewRateLimiter().Limit("/withdraw", time.Hour, 1).BlockFor(20 * time.Millisecond)
	e := newLimitedEcho(limiter)

	assert.Equal(t, http.StatusNoContent, hit(e, http.MethodPost, "/withdraw", "198.51.100.3"))
	assert.Equal(t, http.StatusTooManyRequests, hit(e, http.MethodPost, "/withdraw", "198.51.100.3"))

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, http.StatusNoContent, hit(e, http.MethodGet, "/dashboard", "198.51.100.3"))
}
