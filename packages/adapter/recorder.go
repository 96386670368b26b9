package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/abdul-hamid-achik/apythia/packages/core/logging"
	"github.com/abdul-hamid-achik/apythia/packages/http"
)

// ErrNoResponseArranged is returned when a request arrives and no response is queued.
var ErrNoResponseArranged = errors.New("no response arranged")

// Recorder captures requests and hands out arranged responses, both in FIFO
// order. Adapters embed it and supply the transport.
type Recorder struct {
	Requests    *Queue[*http.ActualRequest]
	Responses   *Queue[*http.Response]
	WaitTimeout time.Duration
	Logger      *slog.Logger
}

// NewRecorder returns a Recorder with empty queues.
func NewRecorder() *Recorder {
	return &Recorder{
		Requests:  NewQueue[*http.ActualRequest](),
		Responses: NewQueue[*http.Response](),
		Logger:    logging.Nop(),
	}
}

// Record captures req and returns the next arranged response. The request is
// recorded even when no response is queued.
func (r *Recorder) Record(req *nethttp.Request) (*http.ActualRequest, *http.Response, error) {
	actual, err := http.CaptureRequest(req)
	if err != nil {
		return nil, nil, err
	}
	r.Requests.Push(actual)
	r.Logger.Debug("captured request", "id", actual.ID, "method", actual.Method, "url", actual.URL.String())

	resp, ok := r.Responses.Pop()
	if !ok {
		r.Logger.Warn("no response arranged", "id", actual.ID, "method", actual.Method, "url", actual.URL.String())
		return actual, nil, ErrNoResponseArranged
	}
	r.Logger.Debug("serving arranged response", "id", actual.ID, "status", resp.StatusCode)
	return actual, resp, nil
}

// ArrangeNextResponse queues resp.
func (r *Recorder) ArrangeNextResponse(_ context.Context, resp *http.Response) error {
	if resp == nil {
		return errors.New("arranged response must not be nil")
	}
	r.Responses.Push(resp)
	r.Logger.Debug("arranged response", "status", resp.StatusCode, "queued", r.Responses.Len())
	return nil
}

// NextActualRequest returns the oldest unasserted request, waiting up to
// WaitTimeout for one to arrive.
func (r *Recorder) NextActualRequest(ctx context.Context) (*http.ActualRequest, error) {
	if r.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.WaitTimeout)
		defer cancel()
	}
	actual, err := r.Requests.Next(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && r.WaitTimeout > 0 {
			return nil, fmt.Errorf("no request received within %s: %w", r.WaitTimeout, err)
		}
		return nil, fmt.Errorf("waiting for request: %w", err)
	}
	r.Logger.Debug("consumed request", "id", actual.ID, "method", actual.Method, "url", actual.URL.String())
	return actual, nil
}

// ForEachMultipartFormDataPart parses msg with mime/multipart.
func (r *Recorder) ForEachMultipartFormDataPart(_ context.Context, msg http.Message, onPart func(*http.ActualPart) error) error {
	return http.ForEachMultipartPart(msg, onPart)
}

// Reset clears both queues, logging whatever was left unconsumed.
func (r *Recorder) Reset() {
	for _, req := range r.Requests.Drain() {
		r.Logger.Warn("unasserted request", "id", req.ID, "method", req.Method, "url", req.URL.String())
	}
	for _, resp := range r.Responses.Drain() {
		r.Logger.Warn("unused arranged response", "status", resp.StatusCode)
	}
}
