package http

import (
	"bytes"
	"io"
	nethttp "net/http"
	"strconv"
)

// Response is an arranged response for the mocked transport to return.
type Response struct {
	StatusCode int
	Headers    Headers
	Body       []byte
}

// NewResponse returns the default response: 200, no headers, empty body.
func NewResponse() *Response {
	return &Response{
		StatusCode: nethttp.StatusOK,
		Headers:    Headers{},
		Body:       []byte{},
	}
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

func (r *Response) ContentType() string {
	return r.Header(ContentTypeHeader)
}

func (r *Response) IsJSON() bool {
	ct, err := ParseContentType(r.ContentType())
	if err != nil {
		return false
	}
	return ct.Is("application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ToNetHTTP converts the response for a client-side transport, attaching req.
func (r *Response) ToNetHTTP(req *nethttp.Request) *nethttp.Response {
	header := r.Headers.ToNetHTTP()
	if header.Get("Content-Length") == "" {
		header.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}
	return &nethttp.Response{
		Status:        strconv.Itoa(r.StatusCode) + " " + nethttp.StatusText(r.StatusCode),
		StatusCode:    r.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

// Write sends the response through a server-side ResponseWriter.
func (r *Response) Write(w nethttp.ResponseWriter) error {
	for name, values := range r.Headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.WriteHeader(r.StatusCode)
	_, err := w.Write(r.Body)
	return err
}
