package diagnostics

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes health + debug endpoints.
type Handler struct {
	buffer    *LogBuffer
	debugLogs bool
	checks    map[string]func() error
}

// NewHandler returns handler. The request log endpoint is only mounted when debugLogs is set.
func NewHandler(buffer *LogBuffer, debugLogs bool) *Handler {
	return &Handler{buffer: buffer, debugLogs: debugLogs, checks: make(map[string]func() error)}
}

// AddCheck registers a named dependency check reported by /health.
func (h *Handler) AddCheck(name string, check func() error) {
	h.checks[name] = check
}

// Register attaches the endpoints.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/health", h.health)
	if h.debugLogs && h.buffer != nil {
		rg.GET("/debug/logs", h.logs)
	}
}

func (h *Handler) health(c *gin.Context) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	body := gin.H{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	c.JSON(status, body)
}

func (h *Handler) logs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": h.buffer.Snapshot(), "capacity": h.buffer.Cap()})
}
