package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/questeded/quested/internal/state"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	backend  Pinger
	registry *state.Registry
	version  string
}

func NewHealthController(backend Pinger, registry *state.Registry, version string) *HealthController {
	return &HealthController{
		backend:  backend,
		registry: registry,
		version:  version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check backend connectivity
	if h.backend != nil {
		if err := h.backend.Ping(c.Request.Context()); err != nil {
			checks["backend"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["backend"] = "ok"
		}
	} else {
		checks["backend"] = "not configured"
	}

	if h.registry != nil {
		checks["sessions"] = strconv.Itoa(h.registry.Len())
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
