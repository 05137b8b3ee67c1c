package handler

import (
	"context"
	"net/http"
	"time"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks  map[string]Checker
	order   []string
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler with no dependency checks.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		checks:  make(map[string]Checker),
		timeout: 5 * time.Second,
	}
}

// WithCheck registers a named readiness check.
func (h *HealthHandler) WithCheck(name string, check Checker) *HealthHandler {
	if _, ok := h.checks[name]; !ok {
		h.order = append(h.order, name)
	}
	h.checks[name] = check
	return h
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if every registered dependency answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := map[string]string{"status": "ready"}
	for _, name := range h.order {
		if err := h.checks[name](ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, name+" unhealthy", err.Error())
			return
		}
		resp[name] = "ok"
	}

	writeJSON(w, http.StatusOK, resp)
}
