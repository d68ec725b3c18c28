package handlers

import (
	"context"
	"net/http"
	"time"
)

// ReadinessProber checks that the upstream business API is reachable.
type ReadinessProber interface {
	Ping(ctx context.Context) error
}

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	prober    ReadinessProber
	startedAt time.Time
}

// NewHealthHandlers constructs health handlers; prober may be nil, in which
// case readiness degenerates to liveness.
func NewHealthHandlers(prober ReadinessProber) *HealthHandlers {
	return &HealthHandlers{
		prober:    prober,
		startedAt: time.Now().UTC(),
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startedAt).String(),
	})
}

// Readyz reports readiness, probing the upstream when a prober is configured.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.prober != nil {
		if err := h.prober.Ping(r.Context()); err != nil {
			writeJSONResponse(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"reason": err.Error(),
			})
			return
		}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}
