// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

import "supporter-agent-go/internal/model"

// InteractionTask represents an analytics interaction event to be persisted.
type InteractionTask struct {
	TaskID      string            `json:"task_id"`
	UserID      string            `json:"user_id"`
	Interaction model.Interaction `json:"interaction"`
}
