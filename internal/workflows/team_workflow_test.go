package workflows

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/claimflow-ai/claimflow/internal/activities"
	"github.com/claimflow-ai/claimflow/internal/teams"
)

// promptRecorder captures the prompt each worker received so tests can check
// what evidence was injected where.
type promptRecorder struct {
	mu      sync.Mutex
	prompts map[string]string
}

func newPromptRecorder() *promptRecorder {
	return &promptRecorder{prompts: make(map[string]string)}
}

func (p *promptRecorder) record(worker, prompt string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts[worker] = prompt
}

func (p *promptRecorder) get(worker string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompts[worker]
}

func TestTeamWorkflowDegradedWorker(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(TeamWorkflow)

	env.RegisterActivityWithOptions(
		func(ctx context.Context, in activities.ExecuteInvestigatorInput) (activities.ExecuteInvestigatorResult, error) {
			if in.Worker == string(teams.WorkerEvidenceAnalyst) {
				return activities.ExecuteInvestigatorResult{}, temporal.NewNonRetryableApplicationError(
					"reasoning service timed out", "Timeout", nil)
			}
			return activities.ExecuteInvestigatorResult{
				Output: "<discovery>All required documents submitted</discovery>",
			}, nil
		},
		activity.RegisterOptions{Name: activities.ActivityExecuteInvestigator},
	)

	env.ExecuteWorkflow(TeamWorkflow, TeamInput{
		ClaimID:   85,
		Team:      teams.DocumentScreening,
		ClaimForm: "Claim ID: 85",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError(), "a degraded worker must not fail the team")

	var result TeamResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, []string{string(teams.WorkerEvidenceAnalyst)}, result.DegradedWorkers)
	assert.Contains(t, result.Message, "All required documents submitted")
}

func TestTeamWorkflowInjectsFraudEvidence(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(TeamWorkflow)

	rec := newPromptRecorder()
	env.RegisterActivityWithOptions(
		func(ctx context.Context, in activities.ExecuteInvestigatorInput) (activities.ExecuteInvestigatorResult, error) {
			rec.record(in.Worker, in.Prompt)
			return activities.ExecuteInvestigatorResult{Output: workerOutputs[in.Worker]}, nil
		},
		activity.RegisterOptions{Name: activities.ActivityExecuteInvestigator},
	)

	env.ExecuteWorkflow(TeamWorkflow, TeamInput{
		ClaimID:   85,
		Team:      teams.FraudDetection,
		ClaimForm: "Claim ID: 85",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	analystPrompt := rec.get(string(teams.WorkerFraudRiskAnalyst))
	require.NotEmpty(t, analystPrompt)
	assert.Contains(t, analystPrompt, "## Computed evidence")
	assert.Contains(t, analystPrompt, "Weighted fraud risk: 18% (MEDIUM)")
	assert.Contains(t, analystPrompt, "item_pricing_benchmarking: flagged")

	// investigators run before the score exists and see no evidence block
	assert.NotContains(t, rec.get(string(teams.WorkerClaimFormInvestigator)), "## Computed evidence")
}

func TestTeamWorkflowInjectsPricingEvidence(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(TeamWorkflow)

	rec := newPromptRecorder()
	env.RegisterActivityWithOptions(
		func(ctx context.Context, in activities.ExecuteInvestigatorInput) (activities.ExecuteInvestigatorResult, error) {
			rec.record(in.Worker, in.Prompt)
			return activities.ExecuteInvestigatorResult{Output: workerOutputs[in.Worker]}, nil
		},
		activity.RegisterOptions{Name: activities.ActivityExecuteInvestigator},
	)

	env.ExecuteWorkflow(TeamWorkflow, TeamInput{
		ClaimID:     85,
		Team:        teams.SettlementOffer,
		ClaimForm:   "Claim ID: 85",
		QuotedPrice: 4300,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	calcPrompt := rec.get(string(teams.WorkerSettlementCalculator))
	require.NotEmpty(t, calcPrompt)
	assert.Contains(t, calcPrompt, "## Computed evidence")
	assert.Contains(t, calcPrompt, "Quoted price 4300.00 is REALISTIC")
}

func TestTeamWorkflowUnknownTeam(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(TeamWorkflow)

	env.ExecuteWorkflow(TeamWorkflow, TeamInput{ClaimID: 85, Team: "arbitration"})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}
