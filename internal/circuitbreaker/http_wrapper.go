package circuitbreaker

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPWrapper wraps an http.Client with a circuit breaker. 5xx responses
// count as breaker failures; 4xx are caller errors and do not trip it.
type HTTPWrapper struct {
	client *http.Client
	cb     *Breaker
}

// NewHTTPWrapper creates a breaker-guarded HTTP client.
func NewHTTPWrapper(client *http.Client, name string, config Config, logger *zap.Logger) *HTTPWrapper {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPWrapper{
		client: client,
		cb:     New(name, config, logger),
	}
}

// Do executes the request through the breaker. When the breaker opened on a
// 5xx classification the underlying response is still returned so the caller
// can inspect the status code.
func (hw *HTTPWrapper) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := hw.cb.Execute(req.Context(), func() error {
		var doErr error
		resp, doErr = hw.client.Do(req)
		if doErr != nil {
			return doErr
		}
		if resp.StatusCode >= 500 {
			return &statusError{code: resp.StatusCode}
		}
		return nil
	})

	if _, ok := err.(*statusError); ok {
		return resp, nil
	}
	return resp, err
}

// State exposes the underlying breaker state.
func (hw *HTTPWrapper) State() State {
	return hw.cb.State()
}

// statusError marks 5xx responses for breaker accounting only.
type statusError struct{ code int }

func (e *statusError) Error() string { return http.StatusText(e.code) }
