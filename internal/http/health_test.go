package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questeded/quested/internal/state"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func serveHealth(t *testing.T, controller *HealthController) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when backend is reachable", func(t *testing.T) {
		registry := state.NewRegistry(state.Deps{})
		registry.GetOrCreate("a")
		t.Cleanup(registry.Close)

		w, response := serveHealth(t, NewHealthController(stubPinger{}, registry, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["backend"])
		assert.Equal(t, "1", response.Checks["sessions"])
		assert.Contains(t, response.Time, "T")
	})

	t.Run("reports missing backend", func(t *testing.T) {
		w, response := serveHealth(t, NewHealthController(nil, nil, ""))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "not configured", response.Checks["backend"])
		assert.Empty(t, response.Version)
	})

	t.Run("returns unhealthy when backend ping fails", func(t *testing.T) {
		w, response := serveHealth(t, NewHealthController(stubPinger{err: errors.New("connection refused")}, nil, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["backend"], "connection refused")
	})
}
