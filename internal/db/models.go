package db

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle of one processing attempt.
type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskRunning   TaskStatus = "RUNNING"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskFailed    TaskStatus = "FAILED"
	TaskCancelled TaskStatus = "CANCELLED"
)

// TaskTypeClaimProcessing is the only task type this worker creates.
const TaskTypeClaimProcessing = "claim_processing"

// Task is the persisted record of one claim-processing attempt. Rows are
// never deleted; the table is the audit trail of every run.
type Task struct {
	TaskID       uuid.UUID  `db:"task_id"`
	ClaimID      int        `db:"claim_id"`
	Status       TaskStatus `db:"status"`
	TaskType     string     `db:"task_type"`
	CreatedAt    time.Time  `db:"created_at"`
	StartedAt    *time.Time `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	ErrorMessage *string    `db:"error_message"`
	Progress     *string    `db:"progress"`
	Result       *string    `db:"result"`
}
