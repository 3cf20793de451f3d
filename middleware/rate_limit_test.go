package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
	})
	defer rl.Stop()

	assert.NotNil(t, rl)
	assert.Equal(t, 10, rl.config.Requests)
	assert.Equal(t, time.Minute, rl.config.Window)
	assert.NotNil(t, rl.config.KeyFunc)
	assert.Equal(t, "Trop de requêtes. Veuillez réessayer plus tard.", rl.config.Message)
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()
	call := func(handler echo.HandlerFunc, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		rec := httptest.NewRecorder()
		assert.NoError(t, handler(e.NewContext(req, rec)))
		return rec
	}

	t.Run("WithinLimit", func(t *testing.T) {
		rl := NewRateLimiter(RateLimitConfig{Requests: 2, Window: time.Second})
		defer rl.Stop()
		handler := rl.Middleware()(okHandler)

		assert.Equal(t, http.StatusOK, call(handler, "10.0.0.1").Code)
		assert.Equal(t, http.StatusOK, call(handler, "10.0.0.1").Code)
	})

	t.Run("ExceededLimit", func(t *testing.T) {
		rl := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute, Message: "Trop de tentatives"})
		defer rl.Stop()
		handler := rl.Middleware()(okHandler)

		assert.Equal(t, http.StatusOK, call(handler, "10.0.0.1").Code)

		rec := call(handler, "10.0.0.1")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "Trop de tentatives")

		// Other clients keep their own bucket
		assert.Equal(t, http.StatusOK, call(handler, "10.0.0.2").Code)
	})

	t.Run("WindowReset", func(t *testing.T) {
		rl := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute})
		defer rl.Stop()

		now := time.Now()
		assert.True(t, rl.allow("k", now))
		assert.False(t, rl.allow("k", now.Add(30*time.Second)))
		assert.True(t, rl.allow("k", now.Add(61*time.Second)))
	})
}
