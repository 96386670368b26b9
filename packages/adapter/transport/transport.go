// Package transport provides an in-process http.RoundTripper adapter. Clients
// built on it never touch the network: each request is captured for assertion
// and answered with the next arranged response.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/abdul-hamid-achik/apythia/packages/adapter"
)

// Transport is a mocked http.RoundTripper.
type Transport struct {
	*adapter.Recorder
}

// Option configures a Transport.
type Option func(*Transport)

// WithWaitTimeout bounds how long NextActualRequest waits for a request.
func WithWaitTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.WaitTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.Logger = logger
		}
	}
}

// New creates a Transport.
func New(opts ...Option) *Transport {
	t := &Transport{Recorder: adapter.NewRecorder()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RoundTrip captures req and returns the next arranged response. The request
// is captured even when the round trip fails.
func (t *Transport) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	if err := req.Context().Err(); err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	actual, resp, err := t.Record(req)
	if err != nil {
		if actual != nil {
			return nil, fmt.Errorf("%s: %w", actual, err)
		}
		return nil, err
	}
	return resp.ToNetHTTP(req), nil
}

// Client returns an *http.Client that sends every request through t.
func (t *Transport) Client() *nethttp.Client {
	return &nethttp.Client{Transport: t}
}

// BeforeEachTest clears both queues.
func (t *Transport) BeforeEachTest(_ context.Context) error {
	t.Reset()
	return nil
}

// AfterEachTest clears both queues, logging whatever was left unconsumed.
func (t *Transport) AfterEachTest(_ context.Context) error {
	t.Reset()
	return nil
}
