package investigator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestInvestigate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/investigate", r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "policy_validator", req.Role)
		assert.Contains(t, req.Prompt, "Claim ID: 85")

		json.NewEncoder(w).Encode(Response{
			Output:     "<discovery>Policy is active</discovery>",
			TokensUsed: 120,
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	resp, err := client.Investigate(context.Background(), Request{
		Role:   "policy_validator",
		Prompt: "Claim ID: 85",
	})

	require.NoError(t, err)
	assert.Equal(t, "<discovery>Policy is active</discovery>", resp.Output)
	assert.Equal(t, 120, resp.TokensUsed)
}

func TestInvestigateTimeoutIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:        srv.URL,
		RequestTimeout: 20 * time.Millisecond,
	}, zaptest.NewLogger(t))

	_, err := client.Investigate(context.Background(), Request{Role: "summary_writer"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestInvestigateNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, zaptest.NewLogger(t))
	_, err := client.Investigate(context.Background(), Request{Role: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestInvestigateRespectsCancelledContext(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Investigate(ctx, Request{Role: "x"})
	require.Error(t, err)
}
