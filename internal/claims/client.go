// Package claims is the HTTP client for the claims backend: claim fetch,
// status push and report upsert. Writes go through a circuit breaker and an
// explicit retry policy so a failing backend degrades fast instead of
// retry-storming.
package claims

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/claimflow-ai/claimflow/internal/circuitbreaker"
	"github.com/claimflow-ai/claimflow/internal/report"
	"github.com/claimflow-ai/claimflow/internal/retry"
)

// Lifecycle status values accepted by the status endpoint. The same
// endpoint also accepts free-text progress labels.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Client talks to the claims backend.
type Client struct {
	baseURL string
	http    *circuitbreaker.HTTPWrapper
	retry   retry.Policy
	logger  *zap.Logger
}

// NewClient builds a claims client. The breaker guards status and report
// writes; claim fetches share it since they hit the same backend.
func NewClient(baseURL string, breakerCfg circuitbreaker.Config, retryPolicy retry.Policy, logger *zap.Logger) *Client {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    circuitbreaker.NewHTTPWrapper(httpClient, "claims-api", breakerCfg, logger),
		retry:   retryPolicy,
		logger:  logger,
	}
}

// FetchClaim loads one claim by id. Any non-200 response is an error.
func (c *Client) FetchClaim(ctx context.Context, claimID int) (*Claim, error) {
	url := fmt.Sprintf("%s/claims/%d", c.baseURL, claimID)

	var claim Claim
	err := c.retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.NonRetryable(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("fetch claim %d: %w", claimID, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return retry.NonRetryable(fmt.Errorf("claim %d not found", claimID))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("fetch claim %d: status %d", claimID, resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&claim)
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// UpdateStatus pushes a status value for a claim. The value may be a
// lifecycle status or a human-readable progress label; the backend accepts
// both on the same endpoint.
func (c *Client) UpdateStatus(ctx context.Context, claimID int, status string) error {
	url := fmt.Sprintf("%s/claims/%d", c.baseURL, claimID)
	payload := map[string]string{"status": status}

	return c.retry.Do(ctx, func() error {
		return c.send(ctx, http.MethodPatch, url, payload)
	})
}

// CreateReport creates the claim report row after the first team completes.
func (c *Client) CreateReport(ctx context.Context, rep report.Report) error {
	url := c.baseURL + "/claim-report"
	return c.retry.Do(ctx, func() error {
		return c.send(ctx, http.MethodPost, url, rep)
	})
}

// UpdateReport overwrites the report for a claim id.
func (c *Client) UpdateReport(ctx context.Context, rep report.Report) error {
	url := fmt.Sprintf("%s/claim-report/by-claim/%d", c.baseURL, rep.ClaimID)
	return c.retry.Do(ctx, func() error {
		return c.send(ctx, http.MethodPatch, url, rep)
	})
}

// UpsertReport creates the report on the first write and updates it
// afterwards.
func (c *Client) UpsertReport(ctx context.Context, rep report.Report, created bool) error {
	if created {
		return c.UpdateReport(ctx, rep)
	}
	return c.CreateReport(ctx, rep)
}

func (c *Client) send(ctx context.Context, method, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return retry.NonRetryable(fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return retry.NonRetryable(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, strings.TrimSpace(string(snippet)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return retry.NonRetryable(err)
		}
		return err
	}
	return nil
}
