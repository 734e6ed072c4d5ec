package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/claimflow-ai/claimflow/internal/investigator"
	"github.com/claimflow-ai/claimflow/internal/metrics"
)

type ExecuteInvestigatorInput struct {
	ClaimID int    `json:"claim_id"`
	Team    string `json:"team"`
	Worker  string `json:"worker"`
	Prompt  string `json:"prompt"`
}

type ExecuteInvestigatorResult struct {
	Output     string `json:"output"`
	TokensUsed int    `json:"tokens_used"`
}

// ExecuteInvestigator runs one worker invocation against the reasoning
// service. Timeouts and transport failures bubble up as errors; Temporal's
// retry policy decides how often to try again before the team workflow
// degrades the worker.
func (a *Activities) ExecuteInvestigator(ctx context.Context, in ExecuteInvestigatorInput) (ExecuteInvestigatorResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Running investigator",
		"claim_id", in.ClaimID, "team", in.Team, "worker", in.Worker)

	resp, err := a.investigator.Investigate(ctx, investigator.Request{
		Role:   in.Worker,
		Prompt: in.Prompt,
	})
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, investigator.ErrTimeout) {
			outcome = metrics.OutcomeTimeout
		}
		metrics.InvestigatorRequests.WithLabelValues(in.Worker, outcome).Inc()
		return ExecuteInvestigatorResult{}, err
	}

	metrics.InvestigatorRequests.WithLabelValues(in.Worker, metrics.OutcomeSuccess).Inc()
	return ExecuteInvestigatorResult{Output: resp.Output, TokensUsed: resp.TokensUsed}, nil
}
