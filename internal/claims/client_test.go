package claims

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/claimflow-ai/claimflow/internal/circuitbreaker"
	"github.com/claimflow-ai/claimflow/internal/report"
	"github.com/claimflow-ai/claimflow/internal/retry"
)

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, Multiplier: 1}
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	return NewClient(url, circuitbreaker.DefaultConfig(), fastRetry(), zaptest.NewLogger(t))
}

func TestFetchClaim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/claims/85", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(Claim{
			ID:          85,
			ClaimType:   TypeAccident,
			InsuredName: "Dana Whitfield",
		})
	}))
	defer srv.Close()

	claim, err := newTestClient(t, srv.URL).FetchClaim(context.Background(), 85)
	require.NoError(t, err)
	assert.Equal(t, 85, claim.ID)
	assert.Equal(t, TypeAccident, claim.ClaimType)
}

func TestFetchClaimNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchClaim(context.Background(), 404)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchClaimRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Claim{ID: 85, ClaimType: TypeTheft})
	}))
	defer srv.Close()

	claim, err := newTestClient(t, srv.URL).FetchClaim(context.Background(), 85)
	require.NoError(t, err)
	assert.Equal(t, TypeTheft, claim.ClaimType)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestUpdateStatusSendsPatch(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/claims/85", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	// Both lifecycle values and free-text labels go to the same endpoint.
	client := newTestClient(t, srv.URL)
	require.NoError(t, client.UpdateStatus(context.Background(), 85, StatusRunning))
	assert.Equal(t, "running", got["status"])

	require.NoError(t, client.UpdateStatus(context.Background(), 85, "Running fraud checks"))
	assert.Equal(t, "Running fraud checks", got["status"])
}

func TestReportUpsertRouting(t *testing.T) {
	type call struct {
		method string
		path   string
	}
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		var rep report.Report
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rep))
		assert.Equal(t, 85, rep.ClaimID)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	rep := report.New(85)

	require.NoError(t, client.UpsertReport(context.Background(), rep, false))
	require.NoError(t, client.UpsertReport(context.Background(), rep, true))

	require.Len(t, calls, 2)
	assert.Equal(t, call{http.MethodPost, "/claim-report"}, calls[0])
	assert.Equal(t, call{http.MethodPatch, "/claim-report/by-claim/85"}, calls[1])
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL).UpdateStatus(context.Background(), 85, StatusRunning)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClaimFormPayload(t *testing.T) {
	claim := &Claim{
		ID:                  85,
		ClaimType:           TypeAccident,
		PolicyNumber:        "POL-4471",
		InsuredName:         "Dana Whitfield",
		VehicleMake:         "Toyota",
		VehicleModel:        "Camry",
		VehicleYear:         2019,
		IncidentDate:        "2026-08-01",
		IncidentDescription: "Rear-end collision at low speed",
		EstimatedRepairCost: 3200,
		LineItems: []LineItem{
			{Description: "Rear bumper", Amount: 1400},
			{Description: "Paint", Amount: 600},
		},
		EvidenceDescriptions: []string{"Photo of rear damage"},
	}

	payload := claim.FormPayload()
	assert.Contains(t, payload, "Claim ID: 85")
	assert.Contains(t, payload, "2019 Toyota Camry")
	assert.Contains(t, payload, "Rear bumper: 1400.00")
	assert.Contains(t, payload, "Photo of rear damage")

	assert.Equal(t, 2000.0, claim.QuotedPrice())
	claim.LineItems = nil
	assert.Equal(t, 3200.0, claim.QuotedPrice())
}

func TestValidType(t *testing.T) {
	assert.True(t, ValidType(TypeAccident))
	assert.True(t, ValidType(TypeTheft))
	assert.False(t, ValidType(ClaimType("flood")))
}
