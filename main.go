package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/claimflow-ai/claimflow/internal/activities"
	"github.com/claimflow-ai/claimflow/internal/circuitbreaker"
	"github.com/claimflow-ai/claimflow/internal/claims"
	"github.com/claimflow-ai/claimflow/internal/config"
	"github.com/claimflow-ai/claimflow/internal/db"
	"github.com/claimflow-ai/claimflow/internal/fraud"
	"github.com/claimflow-ai/claimflow/internal/health"
	"github.com/claimflow-ai/claimflow/internal/investigator"
	"github.com/claimflow-ai/claimflow/internal/queue"
	"github.com/claimflow-ai/claimflow/internal/retry"
	"github.com/claimflow-ai/claimflow/internal/runner"
	"github.com/claimflow-ai/claimflow/internal/workflows"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Configuration load failed", zap.Error(err))
	}

	if cfg.WeightsPath != "" {
		if err := fraud.LoadWeights(cfg.WeightsPath); err != nil {
			logger.Fatal("Fraud weight table load failed",
				zap.String("path", cfg.WeightsPath), zap.Error(err))
		}
		stopWatch, err := fraud.WatchWeights(cfg.WeightsPath, logger)
		if err != nil {
			logger.Fatal("Fraud weight watcher failed",
				zap.String("path", cfg.WeightsPath), zap.Error(err))
		}
		defer stopWatch()
	}

	tasks, err := db.NewTaskStore(db.Config{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,
	}, logger)
	if err != nil {
		logger.Fatal("Task store initialization failed", zap.Error(err))
	}
	defer tasks.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	retryPolicy := retry.Policy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
		Multiplier:      cfg.Retry.Multiplier,
	}
	breakerCfg := circuitbreaker.Config{
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
	}
	claimsClient := claims.NewClient(cfg.ClaimsAPI.BaseURL, breakerCfg, retryPolicy, logger)
	investigatorClient := investigator.NewClient(investigator.Config{
		BaseURL:           cfg.Reasoning.BaseURL,
		RequestTimeout:    cfg.Reasoning.RequestTimeout,
		RequestsPerSecond: cfg.Reasoning.RequestsPerSecond,
		Burst:             cfg.Reasoning.Burst,
	}, logger)

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		logger.Fatal("Temporal connection failed",
			zap.String("host_port", cfg.Temporal.HostPort), zap.Error(err))
	}
	defer temporalClient.Close()

	acts := activities.New(claimsClient, investigatorClient, tasks, redisClient, logger)

	w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ClaimWorkflow)
	w.RegisterWorkflow(workflows.TeamWorkflow)
	registerActivities(w, acts)

	claimRunner := runner.New(temporalClient, tasks, runner.Config{
		TaskQueue:       cfg.Temporal.TaskQueue,
		IQRMultiplier:   cfg.Pricing.IQRMultiplier,
		ZScoreThreshold: cfg.Pricing.ZScoreThreshold,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Kafka.Enabled {
		consumer := queue.NewConsumer(queue.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		}, claimRunner, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("Queue consumer stopped", zap.Error(err))
				stop()
			}
		}()
		logger.Info("Queue consumer started",
			zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	checker := health.NewChecker(logger)
	checker.Register("postgres", tasks.Ping)
	checker.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	checker.Register("temporal", func(ctx context.Context) error {
		_, err := temporalClient.CheckHealth(ctx, &client.CheckHealthRequest{})
		return err
	})

	adminSrv := newAdminServer(cfg.AdminPort, checker, claimRunner, logger)
	go func() {
		logger.Info("Admin server listening", zap.Int("port", cfg.AdminPort))
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Admin server failed", zap.Error(err))
			stop()
		}
	}()

	workerDone := make(chan error, 1)
	go func() { workerDone <- w.Run(worker.InterruptCh()) }()
	logger.Info("Worker started",
		zap.String("task_queue", cfg.Temporal.TaskQueue),
		zap.String("namespace", cfg.Temporal.Namespace),
	)

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-workerDone:
		if err != nil {
			logger.Error("Worker stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Admin server shutdown incomplete", zap.Error(err))
	}
	w.Stop()
	logger.Info("Shutdown complete")
}

func registerActivities(w worker.Worker, acts *activities.Activities) {
	register := func(fn any, name string) {
		w.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
	register(acts.FetchClaim, activities.ActivityFetchClaim)
	register(acts.UpdateClaimStatus, activities.ActivityUpdateClaimStatus)
	register(acts.UpsertClaimReport, activities.ActivityUpsertClaimReport)
	register(acts.ExecuteInvestigator, activities.ActivityExecuteInvestigator)
	register(acts.MarkTaskRunning, activities.ActivityMarkTaskRunning)
	register(acts.MarkTaskCompleted, activities.ActivityMarkTaskCompleted)
	register(acts.MarkTaskFailed, activities.ActivityMarkTaskFailed)
	register(acts.UpdateTaskProgress, activities.ActivityUpdateTaskProgress)
	register(acts.AcquireRunLock, activities.ActivityAcquireRunLock)
	register(acts.ReleaseRunLock, activities.ActivityReleaseRunLock)
}

func newAdminServer(port int, checker *health.Checker, claimRunner *runner.Runner, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", checker.LivenessHandler)
	mux.HandleFunc("GET /readyz", checker.ReadinessHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/v1/claims/{id}/process", func(w http.ResponseWriter, r *http.Request) {
		claimID, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || claimID <= 0 {
			http.Error(w, "invalid claim id", http.StatusBadRequest)
			return
		}

		runID, err := claimRunner.Process(r.Context(), claimID)
		if err != nil {
			if errors.Is(err, runner.ErrAlreadyRunning) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			logger.Error("Claim processing request failed",
				zap.Int("claim_id", claimID), zap.Error(err))
			http.Error(w, "failed to start claim processing", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"claimId": %d, "runId": %q}`+"\n", claimID, runID)
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
