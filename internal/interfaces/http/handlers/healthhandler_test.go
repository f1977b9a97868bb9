package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/accessgate/internal/interfaces/http/handlers/testutil"
)

func TestHealthHandler(t *testing.T) {
	up := PingerFunc(func(context.Context) error { return nil })
	down := PingerFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("all dependencies up", func(t *testing.T) {
		h := NewHealthHandler(map[string]Pinger{"database": up, "redis": up}, testutil.NewMockLogger())
		c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
		h.HealthCheck(c)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, testutil.ParseResponse(w, &body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "up", body.Checks["redis"])
	})

	t.Run("redis down", func(t *testing.T) {
		h := NewHealthHandler(map[string]Pinger{"database": up, "redis": down}, testutil.NewMockLogger())
		c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
		h.HealthCheck(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"redis":"down"`)
		assert.Contains(t, w.Body.String(), `"database":"up"`)
	})
}
