package activities

import (
	"context"

	"go.temporal.io/sdk/activity"
	"go.uber.org/zap"

	"github.com/claimflow-ai/claimflow/internal/claims"
	"github.com/claimflow-ai/claimflow/internal/metrics"
	"github.com/claimflow-ai/claimflow/internal/report"
)

type FetchClaimInput struct {
	ClaimID int `json:"claim_id"`
}

type FetchClaimResult struct {
	Claim claims.Claim `json:"claim"`
}

// FetchClaim loads the claim record from the claims backend.
func (a *Activities) FetchClaim(ctx context.Context, in FetchClaimInput) (FetchClaimResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Fetching claim", "claim_id", in.ClaimID)

	claim, err := a.claims.FetchClaim(ctx, in.ClaimID)
	if err != nil {
		return FetchClaimResult{}, err
	}
	return FetchClaimResult{Claim: *claim}, nil
}

type UpdateClaimStatusInput struct {
	ClaimID int    `json:"claim_id"`
	Status  string `json:"status"`
}

// UpdateClaimStatus patches the claim's status on the claims backend.
func (a *Activities) UpdateClaimStatus(ctx context.Context, in UpdateClaimStatusInput) error {
	return a.claims.UpdateStatus(ctx, in.ClaimID, in.Status)
}

type UpsertClaimReportInput struct {
	Report report.Report `json:"report"`
	// Created is true once a POST has succeeded for this claim; subsequent
	// writes go through PATCH by-claim.
	Created bool `json:"created"`
}

type UpsertClaimReportResult struct {
	Created bool `json:"created"`
}

// UpsertClaimReport persists the cumulative report, creating it on the first
// write and patching it afterwards.
func (a *Activities) UpsertClaimReport(ctx context.Context, in UpsertClaimReportInput) (UpsertClaimReportResult, error) {
	if err := a.claims.UpsertReport(ctx, in.Report, in.Created); err != nil {
		metrics.ReportWrites.WithLabelValues(metrics.OutcomeError).Inc()
		a.logger.Error("Report upsert failed",
			zap.Int("claim_id", in.Report.ClaimID), zap.Error(err))
		return UpsertClaimReportResult{Created: in.Created}, err
	}
	metrics.ReportWrites.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return UpsertClaimReportResult{Created: true}, nil
}
