package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/claimflow-ai/claimflow/internal/activities"
	"github.com/claimflow-ai/claimflow/internal/claims"
	"github.com/claimflow-ai/claimflow/internal/report"
	"github.com/claimflow-ai/claimflow/internal/teams"
)

// ErrClaimLocked is the application error type raised when a claim already
// has a run in flight.
const ErrClaimLocked = "ClaimLocked"

// ClaimWorkflow drives one claim through the fixed team pipeline. It owns the
// run lock, the task record, the claim status pushed to the backend, and the
// cumulative report. Teams run as child workflows; the parent merges each
// team's parsed output into the report and persists it before the next team
// starts, so a crash mid-pipeline loses at most the in-flight team.
func ClaimWorkflow(ctx workflow.Context, in ClaimInput) (ClaimResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Claim run starting", "claim_id", in.ClaimID)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    4,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var lock activities.RunLockResult
	if err := workflow.ExecuteActivity(ctx, activities.ActivityAcquireRunLock,
		activities.RunLockInput{ClaimID: in.ClaimID}).Get(ctx, &lock); err != nil {
		return ClaimResult{}, err
	}
	if !lock.Acquired {
		return ClaimResult{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("claim %d already has a run in flight", in.ClaimID), ErrClaimLocked, nil)
	}
	defer func() {
		// Release even when the run failed or was cancelled.
		cleanupCtx, cancel := workflow.NewDisconnectedContext(ctx)
		defer cancel()
		cleanupCtx = workflow.WithActivityOptions(cleanupCtx, ao)
		if err := workflow.ExecuteActivity(cleanupCtx, activities.ActivityReleaseRunLock,
			activities.RunLockInput{ClaimID: in.ClaimID}).Get(cleanupCtx, nil); err != nil {
			logger.Warn("Run lock release failed; lock will expire",
				"claim_id", in.ClaimID, "error", err)
		}
	}()

	if err := workflow.ExecuteActivity(ctx, activities.ActivityMarkTaskRunning,
		activities.TaskInput{ClaimID: in.ClaimID}).Get(ctx, nil); err != nil {
		return ClaimResult{}, err
	}
	if err := workflow.ExecuteActivity(ctx, activities.ActivityUpdateClaimStatus,
		activities.UpdateClaimStatusInput{ClaimID: in.ClaimID, Status: claims.StatusRunning}).Get(ctx, nil); err != nil {
		return ClaimResult{}, err
	}

	var fetched activities.FetchClaimResult
	if err := workflow.ExecuteActivity(ctx, activities.ActivityFetchClaim,
		activities.FetchClaimInput{ClaimID: in.ClaimID}).Get(ctx, &fetched); err != nil {
		return ClaimResult{}, failRun(ctx, in.ClaimID, fmt.Sprintf("fetch claim: %v", err), err)
	}
	claim := fetched.Claim

	if !claims.ValidType(claim.ClaimType) {
		err := temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("unsupported claim type %q", claim.ClaimType), "UnsupportedClaimType", nil)
		return ClaimResult{}, failRun(ctx, in.ClaimID, err.Error(), err)
	}

	rep := report.New(in.ClaimID)
	rep.TypeOfIncident = string(claim.ClaimType)

	var (
		inbound       string
		reportCreated bool
		teamsRun      []string
	)

	for _, team := range teams.Pipeline {
		label, err := teams.StatusLabel(team)
		if err != nil {
			return ClaimResult{}, failRun(ctx, in.ClaimID, err.Error(), err)
		}
		if err := workflow.ExecuteActivity(ctx, activities.ActivityUpdateClaimStatus,
			activities.UpdateClaimStatusInput{ClaimID: in.ClaimID, Status: label}).Get(ctx, nil); err != nil {
			logger.Warn("Status push failed", "claim_id", in.ClaimID, "team", team, "error", err)
		}
		if err := workflow.ExecuteActivity(ctx, activities.ActivityUpdateTaskProgress,
			activities.TaskInput{ClaimID: in.ClaimID, Detail: label}).Get(ctx, nil); err != nil {
			logger.Warn("Progress update failed", "claim_id", in.ClaimID, "team", team, "error", err)
		}

		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: fmt.Sprintf("claim-%d-%s", in.ClaimID, team),
		})
		var teamRes TeamResult
		err = workflow.ExecuteChildWorkflow(childCtx, TeamWorkflow, TeamInput{
			ClaimID:         in.ClaimID,
			Team:            team,
			ClaimForm:       claim.FormPayload(),
			Inbound:         inbound,
			QuotedPrice:     claim.QuotedPrice(),
			Weights:         in.Weights,
			IQRMultiplier:   in.IQRMultiplier,
			ZScoreThreshold: in.ZScoreThreshold,
		}).Get(childCtx, &teamRes)
		if err != nil {
			return ClaimResult{}, failRun(ctx, in.ClaimID,
				fmt.Sprintf("team %s failed: %v", team, err), err)
		}
		teamsRun = append(teamsRun, string(team))

		fields, err := report.Extract(team, teamRes.Message)
		if err != nil {
			return ClaimResult{Report: rep, TeamsRun: teamsRun}, failRun(ctx, in.ClaimID,
				fmt.Sprintf("team %s output unusable: %v", team, err), err)
		}
		rep = report.Merge(rep, team, fields)

		var upsert activities.UpsertClaimReportResult
		if err := workflow.ExecuteActivity(ctx, activities.ActivityUpsertClaimReport,
			activities.UpsertClaimReportInput{Report: rep, Created: reportCreated}).Get(ctx, &upsert); err != nil {
			return ClaimResult{Report: rep, TeamsRun: teamsRun}, failRun(ctx, in.ClaimID,
				fmt.Sprintf("persist report after %s: %v", team, err), err)
		}
		reportCreated = upsert.Created

		inbound = teamRes.Message

		if report.IsTerminal(rep.OperationStatus) {
			break
		}
	}

	if !report.IsTerminal(rep.OperationStatus) {
		err := temporal.NewNonRetryableApplicationError(
			"pipeline finished without terminal operation status", "IncompleteRun", nil)
		return ClaimResult{Report: rep, TeamsRun: teamsRun}, failRun(ctx, in.ClaimID, err.Error(), err)
	}

	if err := workflow.ExecuteActivity(ctx, activities.ActivityUpdateClaimStatus,
		activities.UpdateClaimStatusInput{ClaimID: in.ClaimID, Status: claims.StatusCompleted}).Get(ctx, nil); err != nil {
		logger.Warn("Final status push failed", "claim_id", in.ClaimID, "error", err)
	}
	if err := workflow.ExecuteActivity(ctx, activities.ActivityMarkTaskCompleted,
		activities.TaskInput{ClaimID: in.ClaimID, Detail: rep.OperationStatus}).Get(ctx, nil); err != nil {
		logger.Warn("Task completion write failed", "claim_id", in.ClaimID, "error", err)
	}

	logger.Info("Claim run completed",
		"claim_id", in.ClaimID, "teams_run", len(teamsRun), "fraud_score", rep.FraudScore)
	return ClaimResult{Report: rep, Completed: true, TeamsRun: teamsRun}, nil
}

// failRun records the failure on the task row and the claim status, then
// returns the original error. Bookkeeping failures are logged, not stacked on
// top of the real cause.
func failRun(ctx workflow.Context, claimID int, msg string, cause error) error {
	logger := workflow.GetLogger(ctx)
	if err := workflow.ExecuteActivity(ctx, activities.ActivityMarkTaskFailed,
		activities.TaskInput{ClaimID: claimID, Detail: msg}).Get(ctx, nil); err != nil {
		logger.Warn("Task failure write failed", "claim_id", claimID, "error", err)
	}
	if err := workflow.ExecuteActivity(ctx, activities.ActivityUpdateClaimStatus,
		activities.UpdateClaimStatusInput{ClaimID: claimID, Status: claims.StatusFailed}).Get(ctx, nil); err != nil {
		logger.Warn("Failure status push failed", "claim_id", claimID, "error", err)
	}
	return cause
}
