package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oakmund/crier/internal/httpclient"
	"github.com/oakmund/crier/pkg/connector"
)

// DirectExecutor performs a single stateless HTTP call per fetch: the
// connector's endpoint receives `{"operation": ..., "arguments": ...}` and
// answers with a JSON value. There is no session, so any number of fetches
// may run against the same connector concurrently.
type DirectExecutor struct {
	client *httpclient.Client
}

type DirectOption func(*DirectExecutor)

// WithClient overrides the underlying HTTP client.
func WithClient(client *httpclient.Client) DirectOption {
	return func(e *DirectExecutor) {
		e.client = client
	}
}

func NewDirectExecutor(opts ...DirectOption) *DirectExecutor {
	e := &DirectExecutor{
		client: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
			httpclient.WithMaxRetries(3),
			httpclient.WithBaseDelay(2*time.Second),
		),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type directRequest struct {
	Operation string         `json:"operation"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

func (e *DirectExecutor) Execute(ctx context.Context, execCtx connector.ExecutionContext) (any, error) {
	body, err := json.Marshal(directRequest{
		Operation: execCtx.Operation,
		Arguments: execCtx.Args,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, execCtx.Connector.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token, ok := execCtx.Credentials["token"]; ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, resp.Status)
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var value any
	if err := json.Unmarshal(responseBody, &value); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return value, nil
}
