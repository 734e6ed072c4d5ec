// Package runner accepts claim-processing requests from the HTTP admin
// endpoint and the message queue, records the task row and starts the claim
// workflow. It is the only place that starts workflows, so the task table
// and Temporal stay in step.
package runner

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/claimflow-ai/claimflow/internal/db"
	"github.com/claimflow-ai/claimflow/internal/fraud"
	"github.com/claimflow-ai/claimflow/internal/workflows"
)

// ErrAlreadyRunning is returned when the claim has a PENDING or RUNNING
// task row.
var ErrAlreadyRunning = errors.New("claim is already being processed")

// WorkflowStarter is the slice of the Temporal client the runner needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Config holds the runner's workflow settings.
type Config struct {
	TaskQueue       string
	IQRMultiplier   float64
	ZScoreThreshold float64
}

// Runner starts claim runs.
type Runner struct {
	temporal WorkflowStarter
	tasks    *db.TaskStore
	cfg      Config
	logger   *zap.Logger
}

func New(temporalClient WorkflowStarter, tasks *db.TaskStore, cfg Config, logger *zap.Logger) *Runner {
	return &Runner{temporal: temporalClient, tasks: tasks, cfg: cfg, logger: logger}
}

// Process records the task row for a claim and starts its workflow. The
// fraud weight table is snapshotted here so a replayed workflow scores with
// the values that were active when the run started. Returns the Temporal
// run id.
func (r *Runner) Process(ctx context.Context, claimID int) (string, error) {
	if _, err := r.tasks.Create(ctx, claimID); err != nil {
		if !errors.Is(err, db.ErrTaskExists) {
			return "", fmt.Errorf("record task: %w", err)
		}
		existing, getErr := r.tasks.GetByClaimID(ctx, claimID)
		if getErr != nil {
			return "", fmt.Errorf("inspect existing task: %w", getErr)
		}
		if existing.Status == db.TaskPending || existing.Status == db.TaskRunning {
			return "", fmt.Errorf("claim %d: %w", claimID, ErrAlreadyRunning)
		}
		// terminal task row: the rerun reuses it, MarkRunning restamps it
		r.logger.Info("Reprocessing claim with terminal task",
			zap.Int("claim_id", claimID), zap.String("previous_status", string(existing.Status)))
	}

	run, err := r.temporal.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        fmt.Sprintf("claim-%d", claimID),
		TaskQueue: r.cfg.TaskQueue,
	}, workflows.ClaimWorkflow, workflows.ClaimInput{
		ClaimID:         claimID,
		Weights:         fraud.Weights(),
		IQRMultiplier:   r.cfg.IQRMultiplier,
		ZScoreThreshold: r.cfg.ZScoreThreshold,
	})
	if err != nil {
		if markErr := r.tasks.MarkFailed(ctx, claimID, fmt.Sprintf("start workflow: %v", err)); markErr != nil {
			r.logger.Error("Task failure write failed",
				zap.Int("claim_id", claimID), zap.Error(markErr))
		}
		return "", fmt.Errorf("start workflow for claim %d: %w", claimID, err)
	}

	r.logger.Info("Claim workflow started",
		zap.Int("claim_id", claimID),
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()),
	)
	return run.GetRunID(), nil
}
