package api

import (
	"context"
	"net/http"
	"time"

	"github.com/AdwayB/dtqs/pkg/metrics"
)

// healthCheckTimeout bounds the dependency probes behind /healthz so a
// hung database cannot wedge the endpoint.
const healthCheckTimeout = 5 * time.Second

// handleHealthz reports process health. Both dependencies are probed on
// every call: the store with a ping, the broker with a passive queue
// inspection. Results feed the shared component registry, so the JSON
// body carries per-component detail alongside the overall status.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		metrics.UpdateComponent("database", false, err.Error())
	} else {
		metrics.UpdateComponent("database", true, "")
	}

	if _, err := s.pub.QueueDepth(); err != nil {
		metrics.UpdateComponent("broker", false, err.Error())
	} else {
		metrics.UpdateComponent("broker", true, "")
	}

	metrics.HealthHandler()(w, r)
}
