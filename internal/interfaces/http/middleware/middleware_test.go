package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/accessgate/internal/shared/logger"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))

	engine := gin.New()
	engine.Use(RequestID(), Logger(log), Recovery(log))
	engine.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })
	engine.GET("/panic", func(c *gin.Context) { panic("boom") })
	return engine
}

func TestRequestID(t *testing.T) {
	engine := newEngine()

	t.Run("generated when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

		require.Equal(t, http.StatusOK, w.Code)
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagated from caller", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	})
}

func TestRecovery(t *testing.T) {
	engine := newEngine()

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("X-Webhook-Secret", "hunter2")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error occurred")
}

func TestRateLimiter_LimitByParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rl := NewRateLimiter(client, 2, time.Minute, log)
	rl.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 30, 0, time.UTC) }

	engine := gin.New()
	engine.POST("/hooks/:branchId", rl.LimitByParam("branchId"), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	post := func(branch string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hooks/"+branch, nil))
		return w
	}

	assert.Equal(t, http.StatusAccepted, post("b1").Code)
	assert.Equal(t, http.StatusAccepted, post("b1").Code)

	limited := post("b1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusAccepted, post("b2").Code, "budgets are per branch")

	rl.now = func() time.Time { return time.Date(2026, 10, 14, 9, 1, 30, 0, time.UTC) }
	assert.Equal(t, http.StatusAccepted, post("b1").Code, "next window resets the counter")
}

func TestRateLimiter_RedisDownAllows(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	log := logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rl := NewRateLimiter(client, 1, time.Minute, log)

	engine := gin.New()
	engine.POST("/hooks/:branchId", rl.LimitByParam("branchId"), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hooks/b1", nil))
		assert.Equal(t, http.StatusAccepted, w.Code)
	}
}
