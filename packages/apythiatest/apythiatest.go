// Package apythiatest wraps apythia for use from Go tests. Every error is
// reported through t.Fatalf, and the adapter lifecycle is bound to the test.
//
//	func TestCreateUser(t *testing.T) {
//		h, client := apythiatest.NewTransport(t)
//		h.ArrangeNextResponse(func(r *arrange.Response) { r.StatusCode(201) })
//
//		createUser(client, "John")
//
//		h.AssertNextRequest(func(r *assertions.Request) {
//			r.Method("POST").URL(func(u *assertions.URL) { u.Path("/users") })
//		})
//	}
package apythiatest

import (
	"context"
	nethttp "net/http"
	"testing"

	"github.com/abdul-hamid-achik/apythia/packages/adapter/transport"
	"github.com/abdul-hamid-achik/apythia/packages/apythia"
	"github.com/abdul-hamid-achik/apythia/packages/arrange"
	"github.com/abdul-hamid-achik/apythia/packages/assertions"
	"github.com/abdul-hamid-achik/apythia/packages/mock"
)

// Helper drives an apythia.Apythia on behalf of one test.
type Helper struct {
	t testing.TB
	a *apythia.Apythia
}

// New runs BeforeEachTest on adapter now and AfterEachTest when t finishes.
func New(t testing.TB, adapter apythia.Adapter, opts ...apythia.Option) *Helper {
	t.Helper()

	a, err := apythia.New(adapter, opts...)
	if err != nil {
		t.Fatalf("failed to create apythia: %v", err)
		return nil
	}
	if err := a.BeforeEachTest(t.Context()); err != nil {
		t.Fatalf("%v", err)
		return nil
	}
	t.Cleanup(func() {
		// t.Context is already canceled while cleanups run.
		if err := a.AfterEachTest(context.Background()); err != nil {
			t.Errorf("%v", err)
		}
	})
	return &Helper{t: t, a: a}
}

// NewTransport returns a helper backed by an in-process transport, and a
// client that sends through it.
func NewTransport(t testing.TB, opts ...apythia.Option) (*Helper, *nethttp.Client) {
	t.Helper()
	tr := transport.New()
	return New(t, tr, opts...), tr.Client()
}

// NewServer returns a helper backed by a started mock server, closed when t
// finishes.
func NewServer(t testing.TB, serverOpts []mock.Option, opts ...apythia.Option) (*Helper, *mock.Server) {
	t.Helper()
	srv := mock.NewServer(serverOpts...)
	t.Cleanup(srv.Close)
	return New(t, srv, opts...), srv
}

// Apythia returns the wrapped instance.
func (h *Helper) Apythia() *apythia.Apythia {
	return h.a
}

// ArrangeNextResponse queues the response built by fn.
func (h *Helper) ArrangeNextResponse(fn func(*arrange.Response)) {
	h.t.Helper()
	if err := h.a.ArrangeNextResponse(h.t.Context(), fn); err != nil {
		h.t.Fatalf("arrange next response: %v", err)
	}
}

// ArrangeNext200Response queues the default response.
func (h *Helper) ArrangeNext200Response() {
	h.t.Helper()
	if err := h.a.ArrangeNext200Response(h.t.Context()); err != nil {
		h.t.Fatalf("arrange next response: %v", err)
	}
}

// MockNextResponse queues the response built by fn.
func (h *Helper) MockNextResponse(fn func(*arrange.Response)) {
	h.t.Helper()
	if err := h.a.MockNextResponse(h.t.Context(), fn); err != nil {
		h.t.Fatalf("mock next response: %v", err)
	}
}

// AssertNextRequest checks the oldest unasserted request against fn.
func (h *Helper) AssertNextRequest(fn func(*assertions.Request)) {
	h.t.Helper()
	if err := h.a.AssertNextRequest(h.t.Context(), fn); err != nil {
		h.t.Fatalf("assert next request: %v", err)
	}
}
