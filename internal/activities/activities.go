// Package activities holds the Temporal activities used by the claim
// workflows. All side effects live here; the workflows themselves stay
// deterministic.
package activities

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/claimflow-ai/claimflow/internal/claims"
	"github.com/claimflow-ai/claimflow/internal/db"
	"github.com/claimflow-ai/claimflow/internal/investigator"
)

// Registered activity names. Workflows reference activities by these names
// so tests can swap in mocks with RegisterActivityWithOptions.
const (
	ActivityFetchClaim          = "FetchClaim"
	ActivityUpdateClaimStatus   = "UpdateClaimStatus"
	ActivityUpsertClaimReport   = "UpsertClaimReport"
	ActivityExecuteInvestigator = "ExecuteInvestigator"
	ActivityMarkTaskRunning     = "MarkTaskRunning"
	ActivityMarkTaskCompleted   = "MarkTaskCompleted"
	ActivityMarkTaskFailed      = "MarkTaskFailed"
	ActivityUpdateTaskProgress  = "UpdateTaskProgress"
	ActivityAcquireRunLock      = "AcquireRunLock"
	ActivityReleaseRunLock      = "ReleaseRunLock"
)

// Activities bundles the external dependencies the activity methods need.
type Activities struct {
	claims       *claims.Client
	investigator *investigator.Client
	tasks        *db.TaskStore
	redis        *redis.Client
	logger       *zap.Logger
}

func New(
	claimsClient *claims.Client,
	investigatorClient *investigator.Client,
	tasks *db.TaskStore,
	redisClient *redis.Client,
	logger *zap.Logger,
) *Activities {
	return &Activities{
		claims:       claimsClient,
		investigator: investigatorClient,
		tasks:        tasks,
		redis:        redisClient,
		logger:       logger,
	}
}
