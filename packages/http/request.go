package http

import (
	"bytes"
	"fmt"
	"io"
	nethttp "net/http"
	neturl "net/url"
	"time"

	"github.com/google/uuid"
)

// Message is the part of a request or multipart segment that body and header
// assertions look at.
type Message struct {
	Headers Headers
	Body    []byte
}

// BodyString returns the body as a string.
func (m Message) BodyString() string {
	return string(m.Body)
}

// ActualRequest is a captured outgoing request.
type ActualRequest struct {
	// ID identifies the capture in logs.
	ID         string
	Method     string
	URL        *neturl.URL
	CapturedAt time.Time
	Message
}

// ActualPart is one segment of a multipart/form-data body.
type ActualPart struct {
	// Name and Filename come from the part's Content-Disposition header.
	Name     string
	Filename *string
	Message
}

// NewActualRequest builds an ActualRequest from already captured data.
func NewActualRequest(method, rawURL string, headers Headers, body []byte) (*ActualRequest, error) {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %q: %w", rawURL, err)
	}
	if headers == nil {
		headers = Headers{}
	}
	if body == nil {
		body = []byte{}
	}
	return &ActualRequest{
		ID:         uuid.NewString(),
		Method:     method,
		URL:        u,
		CapturedAt: time.Now(),
		Message:    Message{Headers: headers, Body: body},
	}, nil
}

// CaptureRequest snapshots req, reading its body fully. The body of req is
// replaced so it can still be read by whoever handles the request next.
func CaptureRequest(req *nethttp.Request) (*ActualRequest, error) {
	body := []byte{}
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(data))
		body = data
	}

	u := *req.URL
	if u.Host == "" && req.Host != "" {
		// Server-side requests carry only the request URI.
		u.Host = req.Host
		if u.Scheme == "" {
			u.Scheme = "http"
			if req.TLS != nil {
				u.Scheme = "https"
			}
		}
	}

	headers := HeadersFrom(req.Header)
	if req.Host != "" && !headers.Has("Host") {
		headers["Host"] = []string{req.Host}
	}

	return &ActualRequest{
		ID:         uuid.NewString(),
		Method:     req.Method,
		URL:        &u,
		CapturedAt: time.Now(),
		Message:    Message{Headers: headers, Body: body},
	}, nil
}

// String renders "METHOD url" for logs and messages.
func (r *ActualRequest) String() string {
	return r.Method + " " + r.URL.String()
}
