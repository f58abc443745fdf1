package models

import "time"

// NotifyTask represents a queued notification job. Tasks are persisted as an
// outbox so a worker restart never loses a promotion notice.
type NotifyTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	UserID      string     `json:"user_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}

const (
	NotifyTaskPending = "pending"
	NotifyTaskDone    = "done"
	NotifyTaskFailed  = "failed"
)
