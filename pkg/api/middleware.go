package api

import (
	"net/http"
	"strconv"

	"github.com/AdwayB/dtqs/pkg/log"
	"github.com/AdwayB/dtqs/pkg/metrics"
)

// statusRecorder captures the response code for logging and metrics. It
// forwards Flush so the SSE handler still sees a flushable writer.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrument wraps every route with request logging and the HTTP metrics
// counters. Paths are static, so the raw path is a safe label value.
func (s *Server) instrument(next http.Handler) http.Handler {
	logger := log.WithComponent("api")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.APIRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		timer.ObserveDurationVec(metrics.APIRequestDuration, r.Method, r.URL.Path)

		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", timer.Duration()).
			Msg("Request handled")
	})
}
