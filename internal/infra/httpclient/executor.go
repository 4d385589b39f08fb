package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
)

// DefaultMaxBody caps buffered response bodies.
const DefaultMaxBody = 16 << 20

// ResponseData captures the response details and duration.
type ResponseData struct {
	Status    int
	Headers   http.Header
	BodyBytes []byte
	Duration  time.Duration
}

// Executor executes HTTP requests with timing.
type Executor struct {
	client  *http.Client
	timeout time.Duration
	maxBody int64
}

// ExecutorOption allows configuring an Executor.
type ExecutorOption func(*Executor)

// WithTimeout sets the default timeout applied to buffered requests.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = timeout }
}

// WithClient sets a custom HTTP client.
func WithClient(client *http.Client) ExecutorOption {
	return func(e *Executor) {
		if client != nil {
			e.client = client
		}
	}
}

// WithMaxBody bounds how much of a response body Do buffers.
func WithMaxBody(n int64) ExecutorOption {
	return func(e *Executor) { e.maxBody = n }
}

// NewExecutor builds an Executor with a default client and timeout. The
// client carries no overall timeout so Stream can serve long downloads; Do
// applies the executor timeout through the context instead.
func NewExecutor(opts ...ExecutorOption) *Executor {
	cfg := DefaultConfig()
	timeout := cfg.Timeout
	cfg.Timeout = 0
	e := &Executor{
		client:  New(cfg),
		timeout: timeout,
		maxBody: DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do executes the request, buffers the body and returns it with the duration.
func (e *Executor) Do(ctx context.Context, req *http.Request) (ResponseData, error) {
	start := time.Now()
	ctxWithTimeout := ctx
	cancel := func() {}
	if e.timeout > 0 {
		ctxWithTimeout, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	resp, err := e.client.Do(req.WithContext(ctxWithTimeout))
	duration := time.Since(start)
	if err != nil {
		logger.L().Debug("http.request.failed", "method", req.Method, "url", req.URL.Redacted(), "err", err)
		return ResponseData{Duration: duration}, err
	}
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if e.maxBody > 0 {
		r = io.LimitReader(resp.Body, e.maxBody+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return ResponseData{Duration: duration}, err
	}
	if e.maxBody > 0 && int64(len(body)) > e.maxBody {
		return ResponseData{Status: resp.StatusCode, Duration: duration},
			fmt.Errorf("response body exceeds %d bytes", e.maxBody)
	}

	logger.L().Debug("http.request", "method", req.Method, "url", req.URL.Redacted(),
		"status", resp.StatusCode, "ms", duration.Milliseconds())

	return ResponseData{
		Status:    resp.StatusCode,
		Headers:   resp.Header.Clone(),
		BodyBytes: body,
		Duration:  time.Since(start),
	}, nil
}

// Stream executes the request and hands back the live response. The caller
// closes the body. No executor timeout applies; use ctx to bound it.
func (e *Executor) Stream(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := e.client.Do(req.WithContext(ctx))
	if err != nil {
		logger.L().Debug("http.stream.failed", "method", req.Method, "url", req.URL.Redacted(), "err", err)
		return nil, err
	}
	return resp, nil
}
