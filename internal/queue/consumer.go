// Package queue consumes claim-processing requests from Kafka. Each message
// carries one claim id; the consumer hands it to the runner and commits the
// offset, so a crashed worker re-reads at most the messages it had not
// handed off yet.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/claimflow-ai/claimflow/internal/metrics"
	"github.com/claimflow-ai/claimflow/internal/runner"
)

// message is the queue payload: {"claimId": 85}.
type message struct {
	ClaimID int `json:"claimId"`
}

// source is the slice of kafka.Reader the consumer uses.
type source interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Processor starts one claim run.
type Processor interface {
	Process(ctx context.Context, claimID int) (string, error)
}

// Config holds the Kafka connection settings.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Consumer reads claim ids off the queue and starts their runs.
type Consumer struct {
	reader    source
	processor Processor
	logger    *zap.Logger
}

// NewConsumer builds a consumer on a real Kafka reader.
func NewConsumer(cfg Config, processor Processor, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return &Consumer{reader: reader, processor: processor, logger: logger}
}

// Run consumes until the context is cancelled. A malformed payload is
// logged, counted and committed; it must not wedge the partition. A claim
// that is already in flight is likewise committed: the queue is a trigger,
// not a ledger.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Offset commit failed",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var payload message
	if err := json.Unmarshal(msg.Value, &payload); err != nil || payload.ClaimID <= 0 {
		metrics.QueueMessages.WithLabelValues("malformed").Inc()
		c.logger.Warn("Dropping malformed queue message",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.ByteString("value", msg.Value),
		)
		return
	}

	runID, err := c.processor.Process(ctx, payload.ClaimID)
	if err != nil {
		if errors.Is(err, runner.ErrAlreadyRunning) {
			metrics.QueueMessages.WithLabelValues("duplicate").Inc()
			c.logger.Info("Claim already in flight, skipping",
				zap.Int("claim_id", payload.ClaimID))
			return
		}
		metrics.QueueMessages.WithLabelValues("failed").Inc()
		c.logger.Error("Claim handoff failed",
			zap.Int("claim_id", payload.ClaimID), zap.Error(err))
		return
	}

	metrics.QueueMessages.WithLabelValues("processed").Inc()
	c.logger.Info("Claim queued for processing",
		zap.Int("claim_id", payload.ClaimID), zap.String("run_id", runID))
}
