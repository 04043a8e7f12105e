package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/AdwayB/dtqs/pkg/log"
	"github.com/AdwayB/dtqs/pkg/metrics"
	"github.com/AdwayB/dtqs/pkg/types"
	"github.com/AdwayB/dtqs/pkg/validate"
)

// SubmitRequest is the body of POST /submit.
type SubmitRequest struct {
	TaskType string         `json:"task_type"`
	Payload  map[string]any `json:"payload"`
	Priority *int           `json:"priority,omitempty"`
}

// SubmitResponse acknowledges an accepted task and points the client at
// its progress stream.
type SubmitResponse struct {
	TaskID uuid.UUID `json:"task_id"`
	Status string    `json:"status"`
	SSEURL string    `json:"sse_url"`
}

// handleSubmit validates a submission, persists the task row, and
// publishes the task message. A publish failure after the insert leaves
// the row pending and unreferenced; workers never see it and cleanup is
// left to operators.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponent("api")

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := validate.Payload(req.TaskType, req.Payload); err != nil {
		logger.Error().Err(err).Str("task_type", req.TaskType).Msg("Payload validation failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	priority := types.DefaultPriority
	if req.Priority != nil {
		priority = types.ClampPriority(*req.Priority)
	}

	task := &types.Task{
		ID:        uuid.New(),
		TaskType:  req.TaskType,
		Payload:   req.Payload,
		Status:    types.TaskStatusPending,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}

	ctx := r.Context()
	if err := s.store.CreateTask(ctx, task); err != nil {
		logger.Error().Err(err).Msg("Task insertion failed")
		writeError(w, http.StatusInternalServerError, "Failed to persist task")
		return
	}

	payload, err := json.Marshal(req.Payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Serialization failed")
		return
	}
	msg := &types.TaskMessage{
		TaskID:   task.ID.String(),
		TaskType: task.TaskType,
		Payload:  payload,
		Priority: priority,
	}
	body, err := msg.Encode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Serialization failed")
		return
	}

	if err := s.pub.Publish(ctx, body); err != nil {
		logger.Error().Err(err).Str("task_id", task.ID.String()).Msg("Failed to publish task")
		writeError(w, http.StatusInternalServerError, "An error occurred when publishing task")
		return
	}

	metrics.TasksSubmitted.WithLabelValues(task.TaskType).Inc()
	logger.Info().Str("task_id", task.ID.String()).Str("task_type", task.TaskType).
		Int("priority", priority).Msg("Task submitted")

	writeJSON(w, http.StatusOK, SubmitResponse{
		TaskID: task.ID,
		Status: "submitted",
		SSEURL: "/sse?task_id=" + task.ID.String(),
	})
}
