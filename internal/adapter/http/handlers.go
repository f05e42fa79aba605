package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Check probes one backing dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	checks  []Check
	timeout time.Duration
}

func NewHandler(checks ...Check) *Handler {
	return &Handler{checks: checks, timeout: 2 * time.Second}
}

type healthResp struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health answers 503 with status "degraded" when any dependency check fails.
func (h *Handler) Health(c echo.Context) error {
	resp := healthResp{Status: "ok"}
	code := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
		defer cancel()
		for _, chk := range h.checks {
			if err := chk.Ping(ctx); err != nil {
				resp.Checks[chk.Name] = err.Error()
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[chk.Name] = "ok"
		}
	}
	resp.Time = time.Now().UTC().Format(time.RFC3339Nano)
	return c.JSON(code, resp)
}
