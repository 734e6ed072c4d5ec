// Package db persists task records to Postgres. Task writes are synchronous:
// there are only a handful per claim and their ordering is the audit trail,
// so a write queue would buy nothing but reordering risk.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrTaskExists is returned when a claim already has a task row and a new
// attempt tries to create one.
var ErrTaskExists = errors.New("task already exists for claim")

// ErrTaskNotFound is returned when no task row exists for a claim.
var ErrTaskNotFound = errors.New("task not found")

// Config holds Postgres connection settings.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	IdleConnections int
	MaxLifetime     time.Duration
}

// TaskStore manages the tasks table.
type TaskStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewTaskStore opens a pooled Postgres connection and verifies it.
func NewTaskStore(cfg Config, logger *zap.Logger) (*TaskStore, error) {
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 25
	}
	if cfg.IdleConnections == 0 {
		cfg.IdleConnections = 5
	}
	if cfg.MaxLifetime == 0 {
		cfg.MaxLifetime = 5 * time.Minute
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.IdleConnections)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Task store initialized",
		zap.String("host", cfg.Host),
		zap.Int("max_connections", cfg.MaxConnections),
	)
	return &TaskStore{db: db, logger: logger}, nil
}

// NewTaskStoreFromDB wraps an existing connection; used by tests.
func NewTaskStoreFromDB(db *sql.DB, logger *zap.Logger) *TaskStore {
	return &TaskStore{db: sqlx.NewDb(db, "postgres"), logger: logger}
}

// Create inserts a PENDING task row for a claim. claim_id is unique: a
// second attempt for the same claim is reported as ErrTaskExists.
func (s *TaskStore) Create(ctx context.Context, claimID int) (*Task, error) {
	task := &Task{
		TaskID:    uuid.New(),
		ClaimID:   claimID,
		Status:    TaskPending,
		TaskType:  TaskTypeClaimProcessing,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (task_id, claim_id, status, task_type, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		task.TaskID, task.ClaimID, task.Status, task.TaskType, task.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("claim %d: %w", claimID, ErrTaskExists)
		}
		return nil, fmt.Errorf("create task for claim %d: %w", claimID, err)
	}
	return task, nil
}

// MarkRunning stamps started_at and flips the row to RUNNING.
func (s *TaskStore) MarkRunning(ctx context.Context, claimID int) error {
	return s.update(ctx, claimID,
		`UPDATE tasks SET status = $1, started_at = $2 WHERE claim_id = $3`,
		TaskRunning, time.Now().UTC(), claimID,
	)
}

// MarkCompleted stamps completed_at, stores the result summary and flips
// the row to COMPLETED.
func (s *TaskStore) MarkCompleted(ctx context.Context, claimID int, result string) error {
	return s.update(ctx, claimID,
		`UPDATE tasks SET status = $1, completed_at = $2, result = $3 WHERE claim_id = $4`,
		TaskCompleted, time.Now().UTC(), result, claimID,
	)
}

// MarkFailed records the failure message and flips the row to FAILED.
func (s *TaskStore) MarkFailed(ctx context.Context, claimID int, errMsg string) error {
	return s.update(ctx, claimID,
		`UPDATE tasks SET status = $1, completed_at = $2, error_message = $3 WHERE claim_id = $4`,
		TaskFailed, time.Now().UTC(), errMsg, claimID,
	)
}

// UpdateProgress records the current human-readable stage label.
func (s *TaskStore) UpdateProgress(ctx context.Context, claimID int, progress string) error {
	return s.update(ctx, claimID,
		`UPDATE tasks SET progress = $1 WHERE claim_id = $2`,
		progress, claimID,
	)
}

// GetByClaimID loads the task row for a claim.
func (s *TaskStore) GetByClaimID(ctx context.Context, claimID int) (*Task, error) {
	var task Task
	err := s.db.GetContext(ctx, &task,
		`SELECT task_id, claim_id, status, task_type, created_at, started_at,
		        completed_at, error_message, progress, result
		 FROM tasks WHERE claim_id = $1`,
		claimID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim %d: %w", claimID, ErrTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task for claim %d: %w", claimID, err)
	}
	return &task, nil
}

// Ping verifies the connection; used by the readiness probe.
func (s *TaskStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *TaskStore) Close() error {
	return s.db.Close()
}

func (s *TaskStore) update(ctx context.Context, claimID int, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update task for claim %d: %w", claimID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("claim %d: %w", claimID, ErrTaskNotFound)
	}
	return nil
}

// isUniqueViolation matches Postgres error code 23505 without importing the
// driver's error type into callers.
func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var c coder
	if errors.As(err, &c) {
		return c.SQLState() == "23505"
	}
	// lib/pq's pq.Error predates SQLState; fall back to the message.
	return err != nil && (strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "23505"))
}
