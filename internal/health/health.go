// Package health exposes liveness and readiness endpoints for the admin
// server. Liveness is unconditional; readiness runs the registered probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Probe checks one dependency. It must return quickly; the handler caps the
// whole readiness pass at two seconds.
type Probe func(ctx context.Context) error

// Checker aggregates named probes.
type Checker struct {
	mu     sync.RWMutex
	probes map[string]Probe
	logger *zap.Logger
}

func NewChecker(logger *zap.Logger) *Checker {
	return &Checker{probes: make(map[string]Probe), logger: logger}
}

// Register adds a named readiness probe. Registering the same name again
// replaces the previous probe.
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = probe
}

// LivenessHandler always reports healthy while the process is serving.
func (c *Checker) LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadinessHandler runs every probe and reports 503 if any fails.
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	c.mu.RLock()
	probes := make(map[string]Probe, len(c.probes))
	for name, p := range c.probes {
		probes[name] = p
	}
	c.mu.RUnlock()

	results := make(map[string]string, len(probes))
	healthy := true
	for name, probe := range probes {
		if err := probe(ctx); err != nil {
			healthy = false
			results[name] = err.Error()
			c.logger.Warn("Readiness probe failed",
				zap.String("probe", name), zap.Error(err))
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	label := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		label = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status": label,
		"checks": results,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
