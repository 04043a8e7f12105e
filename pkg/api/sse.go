package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/AdwayB/dtqs/pkg/metrics"
)

// handleSSE streams task progress as server-sent events. Each event's
// data line is the JSON document produced by the feed watcher; while the
// task is still pending, nothing is written. The client decides when to
// disconnect.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "Missing task_id")
		return
	}
	if _, err := uuid.Parse(taskID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task_id")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.SSEStreamsActive.Inc()
	defer metrics.SSEStreamsActive.Dec()

	for event := range s.watcher.Watch(r.Context(), taskID) {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			// Client went away; the context cancellation tears down the
			// watcher.
			return
		}
		flusher.Flush()
	}
}
