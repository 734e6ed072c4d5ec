package workflows

import (
	"strings"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/claimflow-ai/claimflow/internal/activities"
	"github.com/claimflow-ai/claimflow/internal/fraud"
	"github.com/claimflow-ai/claimflow/internal/metrics"
	"github.com/claimflow-ai/claimflow/internal/parse"
	"github.com/claimflow-ai/claimflow/internal/pricing"
	"github.com/claimflow-ai/claimflow/internal/teams"
)

// TeamWorkflow runs one team's worker chain in roster order and synthesizes
// the consolidated team message. A worker whose activity fails after retries
// is degraded: it contributes nothing and the chain continues, so one flaky
// investigator never sinks the whole team.
func TeamWorkflow(ctx workflow.Context, in TeamInput) (TeamResult, error) {
	logger := workflow.GetLogger(ctx)

	roster, err := teams.Roster(in.Team)
	if err != nil {
		return TeamResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	start := workflow.Now(ctx)

	var (
		history         []string
		outputs         = make(map[teams.WorkerID]string, len(roster))
		indicatorValues = make(map[string]float64)
		degraded        []string
		tokens          int
	)

	for _, worker := range roster {
		evidence := evidenceFor(in, worker, indicatorValues, history, logger)

		prompt, err := teams.BuildPrompt(worker, in.ClaimForm, in.Inbound, history, evidence)
		if err != nil {
			return TeamResult{}, err
		}

		var res activities.ExecuteInvestigatorResult
		err = workflow.ExecuteActivity(ctx, activities.ActivityExecuteInvestigator, activities.ExecuteInvestigatorInput{
			ClaimID: in.ClaimID,
			Team:    string(in.Team),
			Worker:  string(worker),
			Prompt:  prompt,
		}).Get(ctx, &res)
		if err != nil {
			logger.Warn("Worker degraded after retries",
				"claim_id", in.ClaimID, "team", in.Team, "worker", worker, "error", err)
			degraded = append(degraded, string(worker))
			continue
		}

		tokens += res.TokensUsed
		out := strings.TrimSpace(res.Output)
		if out == "" {
			continue
		}
		history = append(history, out)
		outputs[worker] = out
		for name, value := range parse.IndicatorValues(out) {
			indicatorValues[name] = value
		}
	}

	message := synthesize(roster, outputs)

	if !workflow.IsReplaying(ctx) {
		metrics.TeamDuration.WithLabelValues(string(in.Team)).
			Observe(workflow.Now(ctx).Sub(start).Seconds())
	}

	return TeamResult{
		Team:            in.Team,
		Message:         message,
		DegradedWorkers: degraded,
		TokensUsed:      tokens,
	}, nil
}

// evidenceFor computes the deterministic evidence block injected before the
// workers that consume it: the weighted risk breakdown for the fraud-risk
// analyst and the price-realism analysis for the settlement calculator.
func evidenceFor(in TeamInput, worker teams.WorkerID, indicatorValues map[string]float64, history []string, logger log.Logger) string {
	switch worker {
	case teams.WorkerFraudRiskAnalyst:
		weights := in.Weights
		if len(weights) == 0 {
			weights = fraud.DefaultWeights()
		}
		result, err := fraud.Score(indicatorValues, weights)
		if err != nil {
			logger.Warn("Fraud scoring skipped",
				"claim_id", in.ClaimID, "error", err)
			return ""
		}
		return result.Summary()

	case teams.WorkerSettlementCalculator:
		var prices []float64
		for _, msg := range history {
			prices = append(prices, parse.MarketPrices(msg)...)
		}
		if len(prices) == 0 {
			return ""
		}
		analyzer := pricing.NewAnalyzer()
		if in.IQRMultiplier > 0 {
			analyzer.IQRMultiplier = in.IQRMultiplier
		}
		if in.ZScoreThreshold > 0 {
			analyzer.ZScoreThreshold = in.ZScoreThreshold
		}
		return analyzer.Analyze(prices, in.QuotedPrice).Summary(in.QuotedPrice)
	}
	return ""
}

// synthesize joins the latest non-empty worker outputs in roster order. The
// result is the team's consolidated message; downstream parsing sees every
// tag any worker emitted.
func synthesize(roster []teams.WorkerID, outputs map[teams.WorkerID]string) string {
	parts := make([]string, 0, len(outputs))
	for _, worker := range roster {
		if out, ok := outputs[worker]; ok {
			parts = append(parts, out)
		}
	}
	return strings.Join(parts, "\n---\n")
}
