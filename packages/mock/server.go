// Package mock provides a mock HTTP server adapter. Every request it receives
// is captured for assertion and answered with the next arranged response.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/apythia/packages/adapter"
	"github.com/abdul-hamid-achik/apythia/packages/http"
)

// DefaultAddr listens on a random loopback port.
const DefaultAddr = "127.0.0.1:0"

// RequestHook is called for each captured request with the response that
// answered it, or nil when nothing was arranged.
type RequestHook func(req *http.ActualRequest, resp *http.Response)

// Server is a mock HTTP server adapter
type Server struct {
	*adapter.Recorder

	addr      string
	delay     time.Duration
	onRequest RequestHook

	mu     sync.Mutex
	server *httptest.Server
}

// Option is a functional option for Server
type Option func(*Server)

// WithAddr sets the listen address
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithWaitTimeout bounds how long NextActualRequest waits for a request
func WithWaitTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.WaitTimeout = d
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// WithOnRequest registers a hook run after each request is answered
func WithOnRequest(hook RequestHook) Option {
	return func(s *Server) {
		s.onRequest = hook
	}
}

// NewServer creates a new mock server. It does not listen until Start.
func NewServer(opts ...Option) *Server {
	s := &Server{
		Recorder: adapter.NewRecorder(),
		addr:     DefaultAddr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts listening. Calling it on a running server is a no-op.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	srv := httptest.NewUnstartedServer(s)
	srv.Listener.Close()
	srv.Listener = ln
	srv.Start()
	s.server = srv

	s.Logger.Info("mock server started", "url", srv.URL)
	return nil
}

// Run starts the server and blocks until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Close()
	return nil
}

// URL returns the base URL, or "" when the server is not running.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return ""
	}
	return s.server.URL
}

// Client returns an *http.Client for the running server.
func (s *Server) Client() *nethttp.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return &nethttp.Client{}
	}
	return s.server.Client()
}

// Close stops the server, waiting for outstanding requests.
func (s *Server) Close() {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	if srv != nil {
		srv.Close()
		s.Logger.Info("mock server stopped")
	}
}

// BeforeEachTest starts the server if needed and clears both queues.
func (s *Server) BeforeEachTest(_ context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	s.Reset()
	return nil
}

// AfterEachTest clears both queues, logging whatever was left unconsumed.
// The server keeps running so it can be shared by a whole suite.
func (s *Server) AfterEachTest(_ context.Context) error {
	s.Reset()
	return nil
}

// ServeHTTP captures r and writes the next arranged response, or 500 when
// none is queued.
func (s *Server) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	start := time.Now()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	actual, resp, err := s.Record(r)
	if s.onRequest != nil && actual != nil {
		s.onRequest(actual, resp)
	}
	if err != nil {
		s.Logger.Warn("request not served", "method", r.Method, "path", r.URL.Path, "error", err)
		nethttp.Error(w, err.Error(), nethttp.StatusInternalServerError)
		return
	}

	if err := resp.Write(w); err != nil {
		s.Logger.Warn("failed to write response", "method", r.Method, "path", r.URL.Path, "error", err)
		return
	}
	s.Logger.Debug("served", "method", r.Method, "path", r.URL.Path, "status", resp.StatusCode, "duration", time.Since(start))
}
