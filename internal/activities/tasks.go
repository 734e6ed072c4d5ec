package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/claimflow-ai/claimflow/internal/metrics"
)

type TaskInput struct {
	ClaimID int    `json:"claim_id"`
	Detail  string `json:"detail,omitempty"`
}

// MarkTaskRunning flips the claim's task row to RUNNING.
func (a *Activities) MarkTaskRunning(ctx context.Context, in TaskInput) error {
	return a.tasks.MarkRunning(ctx, in.ClaimID)
}

// MarkTaskCompleted records the result summary and flips the row to COMPLETED.
func (a *Activities) MarkTaskCompleted(ctx context.Context, in TaskInput) error {
	if err := a.tasks.MarkCompleted(ctx, in.ClaimID, in.Detail); err != nil {
		return err
	}
	metrics.ClaimsProcessed.WithLabelValues("completed").Inc()
	return nil
}

// MarkTaskFailed records the failure message and flips the row to FAILED.
func (a *Activities) MarkTaskFailed(ctx context.Context, in TaskInput) error {
	if err := a.tasks.MarkFailed(ctx, in.ClaimID, in.Detail); err != nil {
		return err
	}
	metrics.ClaimsProcessed.WithLabelValues("failed").Inc()
	return nil
}

// UpdateTaskProgress records the current stage label on the task row.
func (a *Activities) UpdateTaskProgress(ctx context.Context, in TaskInput) error {
	return a.tasks.UpdateProgress(ctx, in.ClaimID, in.Detail)
}

// runLockTTL bounds how long a crashed worker can hold a claim before
// another attempt may start.
const runLockTTL = 30 * time.Minute

type RunLockInput struct {
	ClaimID int `json:"claim_id"`
}

type RunLockResult struct {
	Acquired bool `json:"acquired"`
}

// AcquireRunLock takes the per-claim Redis lock that keeps a claim from
// being processed twice concurrently. Not acquiring the lock is a normal
// outcome, not an error.
func (a *Activities) AcquireRunLock(ctx context.Context, in RunLockInput) (RunLockResult, error) {
	ok, err := a.redis.SetNX(ctx, runLockKey(in.ClaimID), time.Now().UTC().Format(time.RFC3339), runLockTTL).Result()
	if err != nil {
		return RunLockResult{}, fmt.Errorf("acquire run lock for claim %d: %w", in.ClaimID, err)
	}
	return RunLockResult{Acquired: ok}, nil
}

// ReleaseRunLock drops the per-claim lock. Releasing a lock that already
// expired is harmless.
func (a *Activities) ReleaseRunLock(ctx context.Context, in RunLockInput) error {
	if err := a.redis.Del(ctx, runLockKey(in.ClaimID)).Err(); err != nil {
		return fmt.Errorf("release run lock for claim %d: %w", in.ClaimID, err)
	}
	return nil
}

func runLockKey(claimID int) string {
	return fmt.Sprintf("claimflow:run-lock:%d", claimID)
}
