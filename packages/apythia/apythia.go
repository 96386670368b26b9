// Package apythia ties the assertion and arrangement DSLs to a mocked HTTP
// transport.
//
//	srv := mock.NewServer()
//	a, _ := apythia.New(srv)
//	_ = a.BeforeEachTest(ctx)
//	defer a.AfterEachTest(ctx)
//
//	_ = a.ArrangeNextResponse(ctx, func(r *arrange.Response) { r.StatusCode(201) })
//	// ... exercise the code under test against srv.URL() ...
//	err := a.AssertNextRequest(ctx, func(r *assertions.Request) {
//		r.Method("POST").URL(func(u *assertions.URL) { u.Path("/users") })
//	})
//
// Every interaction is independent: expectations and arranged responses are
// built fresh for each call and never kept.
package apythia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdul-hamid-achik/apythia/packages/arrange"
	"github.com/abdul-hamid-achik/apythia/packages/assertions"
	"github.com/abdul-hamid-achik/apythia/packages/core/config"
	"github.com/abdul-hamid-achik/apythia/packages/core/logging"
	"github.com/abdul-hamid-achik/apythia/packages/extension"
	"github.com/abdul-hamid-achik/apythia/packages/http"
)

// Adapter is the mocked transport apythia drives.
type Adapter interface {
	// BeforeEachTest and AfterEachTest bracket one test. They must be safe
	// whether the adapter lives for one test or for a whole suite.
	BeforeEachTest(ctx context.Context) error
	AfterEachTest(ctx context.Context) error

	// ArrangeNextResponse queues resp; responses are served in arrangement order.
	ArrangeNextResponse(ctx context.Context, resp *http.Response) error

	// NextActualRequest returns captured requests in send order, one per call.
	NextActualRequest(ctx context.Context) (*http.ActualRequest, error)

	// ForEachMultipartFormDataPart calls onPart once per multipart segment of
	// msg, in order.
	ForEachMultipartFormDataPart(ctx context.Context, msg http.Message, onPart func(*http.ActualPart) error) error
}

// Apythia asserts captured requests and arranges responses through an Adapter.
type Apythia struct {
	adapter     Adapter
	extensions  *extension.Registry
	evaluator   *assertions.Evaluator
	logger      *slog.Logger
	waitTimeout time.Duration
}

type options struct {
	logger      *slog.Logger
	waitTimeout time.Duration
	extensions  []extension.Config
}

// Option configures an Apythia.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConfig applies the logger and wait timeout described by cfg.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		o.logger = cfg.Logger()
		o.waitTimeout = cfg.GetWaitTimeout()
	}
}

// WithExtensionConfig registers an extension config, e.g. jsonext.Config.
func WithExtensionConfig(cfg extension.Config) Option {
	return func(o *options) {
		o.extensions = append(o.extensions, cfg)
	}
}

// New creates an Apythia driving adapter.
func New(adapter Adapter, opts ...Option) (*Apythia, error) {
	if adapter == nil {
		return nil, errors.New("adapter must not be nil")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}

	reg := extension.NewRegistry()
	for _, cfg := range o.extensions {
		if err := reg.Add(cfg); err != nil {
			return nil, err
		}
	}

	return &Apythia{
		adapter:     adapter,
		extensions:  reg,
		evaluator:   assertions.NewEvaluator(assertions.WithPartReader(adapter.ForEachMultipartFormDataPart)),
		logger:      o.logger,
		waitTimeout: o.waitTimeout,
	}, nil
}

// DSLExtensionConfig returns the registry handed to every builder.
func (a *Apythia) DSLExtensionConfig() *extension.Registry {
	return a.extensions
}

// BeforeEachTest prepares the adapter for a test.
func (a *Apythia) BeforeEachTest(ctx context.Context) error {
	if err := a.adapter.BeforeEachTest(ctx); err != nil {
		return fmt.Errorf("before each test: %w", err)
	}
	return nil
}

// AfterEachTest tears the adapter down after a test.
func (a *Apythia) AfterEachTest(ctx context.Context) error {
	if err := a.adapter.AfterEachTest(ctx); err != nil {
		return fmt.Errorf("after each test: %w", err)
	}
	return nil
}

// ArrangeNextResponse builds a response with fn and queues it on the adapter.
func (a *Apythia) ArrangeNextResponse(ctx context.Context, fn func(*arrange.Response)) error {
	resp, err := arrange.BuildResponse(a.extensions, fn)
	if err != nil {
		return err
	}
	if err := a.adapter.ArrangeNextResponse(ctx, resp); err != nil {
		return fmt.Errorf("failed to arrange response: %w", err)
	}
	a.logger.Debug("arranged response", "status", resp.StatusCode, "bodyBytes", len(resp.Body))
	return nil
}

// ArrangeNext200Response queues the default response: 200, no headers, empty body.
func (a *Apythia) ArrangeNext200Response(ctx context.Context) error {
	return a.ArrangeNextResponse(ctx, nil)
}

// MockNextResponse is ArrangeNextResponse for test doubles.
func (a *Apythia) MockNextResponse(ctx context.Context, fn func(*arrange.Response)) error {
	return a.ArrangeNextResponse(ctx, fn)
}

// AssertNextRequest takes the oldest unasserted request from the adapter and
// checks it against the expectations built by fn.
//
// The result is a *failure.UsageError for illegal DSL use, a
// *failure.AssertionError listing every mismatch, a
// *failure.UnsupportedEncodingError for bodies that cannot be decoded, or the
// adapter's error when no request could be fetched.
func (a *Apythia) AssertNextRequest(ctx context.Context, fn func(*assertions.Request)) error {
	actual, err := a.nextActualRequest(ctx)
	if err != nil {
		return err
	}

	exp, err := assertions.BuildRequest(a.extensions, fn)
	if err != nil {
		return err
	}

	if err := a.evaluator.Evaluate(ctx, exp, actual); err != nil {
		a.logger.Debug("request assertion failed", "id", actual.ID, "request", actual.String(), "error", err)
		return err
	}
	a.logger.Debug("request assertion passed", "id", actual.ID, "request", actual.String())
	return nil
}

func (a *Apythia) nextActualRequest(ctx context.Context) (*http.ActualRequest, error) {
	if a.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.waitTimeout)
		defer cancel()
	}
	actual, err := a.adapter.NextActualRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get next request: %w", err)
	}
	return actual, nil
}
