package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPurge is the task type for purging expired session audit rows.
	TaskSessionPurge = "session:purge"
)

// SessionPurgePayload describes a purge run. A zero GraceHours deletes rows as
// soon as they expire.
type SessionPurgePayload struct {
	GraceHours int `json:"grace_hours"`
}

// NewSessionPurgeTask constructs an Asynq task.
func NewSessionPurgeTask(payload SessionPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPurge, data), nil
}
