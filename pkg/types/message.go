package types

import (
	"encoding/json"
	"fmt"
)

// TaskMessage is the wire format published to the broker at submission and
// decoded by workers. Payload is kept raw; only the handler for the task
// type knows its shape.
type TaskMessage struct {
	TaskID   string          `json:"task_id"`
	TaskType string          `json:"task_type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Priority int             `json:"priority"`
}

// Encode serializes the message for publishing.
func (m *TaskMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task message: %w", err)
	}
	return data, nil
}

// DecodeTaskMessage parses a broker delivery body. A missing or
// non-integer priority falls back to DefaultPriority; out-of-range values
// are clamped to 0-255. Any other malformation is the caller's poison-pill
// signal.
func DecodeTaskMessage(body []byte) (*TaskMessage, error) {
	var raw struct {
		TaskID   string          `json:"task_id"`
		TaskType string          `json:"task_type"`
		Payload  json.RawMessage `json:"payload"`
		Priority json.RawMessage `json:"priority"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode task message: %w", err)
	}

	msg := &TaskMessage{
		TaskID:   raw.TaskID,
		TaskType: raw.TaskType,
		Payload:  raw.Payload,
		Priority: DefaultPriority,
	}

	if len(raw.Priority) > 0 {
		var p int
		if err := json.Unmarshal(raw.Priority, &p); err == nil && p >= 0 {
			msg.Priority = ClampPriority(p)
		}
	}
	return msg, nil
}
