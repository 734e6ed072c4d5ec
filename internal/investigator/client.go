// Package investigator is the client for the external reasoning service
// that produces investigator findings. The service is opaque: prompts go
// in, free text comes out. Latency is arbitrary, so every request carries a
// deadline and a timeout surfaces as a typed error the orchestrator can
// classify.
package investigator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrTimeout marks a reasoning-service call that exceeded its deadline.
var ErrTimeout = errors.New("reasoning service timed out")

// Request is one investigator invocation.
type Request struct {
	Role   string `json:"role"`
	Prompt string `json:"prompt"`
}

// Response is the service's findings for one invocation.
type Response struct {
	Output     string `json:"output"`
	TokensUsed int    `json:"tokensUsed"`
}

// Client calls the reasoning service with a shared rate limit across all
// in-flight claims.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
}

// Config holds the reasoning-service knobs.
type Config struct {
	BaseURL           string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
}

// NewClient builds a reasoning-service client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst == 0 {
		cfg.Burst = 4
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}
}

// Investigate runs one worker invocation. The returned output is raw tagged
// text; parsing belongs to the caller.
func (c *Client) Investigate(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/investigate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isClientTimeout(err) {
			return nil, fmt.Errorf("%w: role %s after %s", ErrTimeout, req.Role, time.Since(start).Round(time.Millisecond))
		}
		return nil, fmt.Errorf("investigate role %s: %w", req.Role, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("investigate role %s: status %d", req.Role, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.logger.Debug("Investigator call completed",
		zap.String("role", req.Role),
		zap.Int("tokens_used", out.TokensUsed),
		zap.Duration("duration", time.Since(start)),
	)
	return &out, nil
}

func isClientTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
