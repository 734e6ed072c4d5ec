// Package workflows contains the Temporal workflows that drive a claim
// through the team pipeline. The parent ClaimWorkflow owns routing and the
// cumulative report; each team runs as a child TeamWorkflow.
package workflows

import (
	"github.com/claimflow-ai/claimflow/internal/fraud"
	"github.com/claimflow-ai/claimflow/internal/report"
	"github.com/claimflow-ai/claimflow/internal/teams"
)

// ClaimInput starts one claim run. Weights and pricing settings are
// snapshotted by the caller so a replayed workflow sees the same values the
// original run saw.
type ClaimInput struct {
	ClaimID int `json:"claim_id"`

	// Weights is the fraud indicator table for this run. Empty means the
	// built-in default table.
	Weights fraud.WeightTable `json:"weights,omitempty"`

	// IQRMultiplier and ZScoreThreshold tune the price-realism analyzer.
	// Zero means the analyzer default.
	IQRMultiplier   float64 `json:"iqr_multiplier,omitempty"`
	ZScoreThreshold float64 `json:"z_score_threshold,omitempty"`
}

// ClaimResult is the terminal outcome of one claim run.
type ClaimResult struct {
	Report    report.Report `json:"report"`
	Completed bool          `json:"completed"`
	TeamsRun  []string      `json:"teams_run"`
}

// TeamInput starts one team sub-workflow.
type TeamInput struct {
	ClaimID   int      `json:"claim_id"`
	Team      teams.ID `json:"team"`
	ClaimForm string   `json:"claim_form"`

	// Inbound is the previous team's synthesized message; empty for the
	// first team.
	Inbound string `json:"inbound"`

	// QuotedPrice is the claim's benchmark amount for the settlement team.
	QuotedPrice float64 `json:"quoted_price"`

	Weights         fraud.WeightTable `json:"weights,omitempty"`
	IQRMultiplier   float64           `json:"iqr_multiplier,omitempty"`
	ZScoreThreshold float64           `json:"z_score_threshold,omitempty"`
}

// TeamResult is one team's consolidated output.
type TeamResult struct {
	Team teams.ID `json:"team"`

	// Message is the deterministic synthesis of the team's worker outputs;
	// the parent parses report fields out of it.
	Message string `json:"message"`

	// DegradedWorkers lists workers whose invocation failed after retries
	// and contributed nothing.
	DegradedWorkers []string `json:"degraded_workers,omitempty"`

	TokensUsed int `json:"tokens_used"`
}
