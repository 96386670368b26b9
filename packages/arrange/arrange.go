// Package arrange builds the responses a mocked transport returns.
//
//	resp, err := arrange.BuildResponse(reg, func(r *arrange.Response) {
//		r.StatusCode(201)
//		r.Headers(func(h *arrange.Headers) { h.Header("Location", "/items/1") })
//		r.PlainTextBody("created")
//	})
//
// Unset parts keep their defaults: status 200, no headers, empty body.
package arrange

import (
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
	"github.com/abdul-hamid-achik/apythia/packages/core/guard"
	"github.com/abdul-hamid-achik/apythia/packages/extension"
	"github.com/abdul-hamid-achik/apythia/packages/http"
	"golang.org/x/text/encoding/ianaindex"
)

// BuildResponse runs fn against a fresh Response builder.
func BuildResponse(extensions *extension.Registry, fn func(*Response)) (*http.Response, error) {
	r := NewResponse(extensions)
	if fn != nil {
		fn(r)
	}
	return r.Build()
}

// Response collects one arranged response. The first usage error is kept and
// every later call is ignored.
type Response struct {
	err         error
	extensions  *extension.Registry
	statusCalls *guard.CallCountChecker
	headerCalls *guard.CallCountChecker
	bodyCalls   map[string]*guard.CallCountChecker
	out         *http.Response
}

// NewResponse returns a builder holding the default response.
func NewResponse(extensions *extension.Registry) *Response {
	return &Response{
		extensions:  extensions,
		statusCalls: guard.NewCallCountChecker("statusCode"),
		headerCalls: guard.NewCallCountChecker("headers"),
		bodyCalls:   make(map[string]*guard.CallCountChecker),
		out:         http.NewResponse(),
	}
}

// Fail records err unless an earlier error is already recorded. Extension
// body helpers use it to report encoding failures.
func (r *Response) Fail(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func (r *Response) check(c *guard.CallCountChecker) bool {
	if r.err != nil {
		return false
	}
	if err := c.Check(); err != nil {
		r.Fail(err)
		return false
	}
	return true
}

// StatusCode sets the response status.
func (r *Response) StatusCode(code int) *Response {
	if !r.check(r.statusCalls) {
		return r
	}
	if code < 100 || code > 999 {
		r.Fail(failure.Usagef("invalid status code %d", code))
		return r
	}
	r.out.StatusCode = code
	return r
}

// Headers adds response headers.
func (r *Response) Headers(fn func(*Headers)) *Response {
	if !r.check(r.headerCalls) {
		return r
	}
	if fn != nil {
		fn(&Headers{r: r})
	}
	return r
}

// Body sets the body for the named action. Each action may run once. A
// non-empty contentType is written to the Content-Type header, which must
// not be set yet.
func (r *Response) Body(action string, body []byte, contentType string) *Response {
	c, ok := r.bodyCalls[action]
	if !ok {
		c = guard.NewCallCountChecker(action)
		r.bodyCalls[action] = c
	}
	if !r.check(c) {
		return r
	}
	if contentType != "" {
		if r.out.Headers.Has(http.ContentTypeHeader) {
			r.Fail(contentTypePresent())
			return r
		}
		r.out.Headers.Add(http.ContentTypeHeader, contentType)
	}
	if body == nil {
		body = []byte{}
	}
	r.out.Body = body
	return r
}

// BytesBody sets raw body bytes. An empty contentType leaves the header unset.
func (r *Response) BytesBody(value []byte, contentType string) *Response {
	return r.Body("bytesBody", append([]byte{}, value...), contentType)
}

// PlainTextBody sets a UTF-8 text body with "text/plain; charset=UTF-8".
func (r *Response) PlainTextBody(value string) *Response {
	return r.Body("plainTextBody", []byte(value), http.FormatContentType("text/plain", http.P("charset", "UTF-8")))
}

// PlainTextBodyCharset encodes value with the named IANA charset and sets
// "text/plain; charset=<canonical name>".
func (r *Response) PlainTextBodyCharset(value, charset string) *Response {
	if r.err != nil {
		return r
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		r.Fail(failure.Usagef("unsupported charset %q", charset))
		return r
	}
	name, err := ianaindex.MIME.Name(enc)
	if err != nil || name == "" {
		if name, err = ianaindex.IANA.Name(enc); err != nil {
			name = strings.ToUpper(charset)
		}
	}
	encoded, err := enc.NewEncoder().Bytes([]byte(value))
	if err != nil {
		r.Fail(failure.Usagef("cannot encode body as %s: %v", name, err))
		return r
	}
	return r.Body("plainTextBodyCharset", encoded, http.FormatContentType("text/plain", http.P("charset", name)))
}

// MultipartFormDataBody encodes parts as multipart/form-data.
func (r *Response) MultipartFormDataBody(parts ...http.FormPart) *Response {
	if r.err != nil {
		return r
	}
	if len(parts) == 0 {
		r.Fail(failure.Usagef("multipart form data must have at least one part"))
		return r
	}
	body, contentType, err := http.BuildMultipartBody(parts)
	if err != nil {
		r.Fail(err)
		return r
	}
	return r.Body("multipartFormDataBody", body, contentType)
}

// Extensions returns the extension config registry.
func (r *Response) Extensions() *extension.Registry {
	return r.extensions
}

// Err returns the first recorded error.
func (r *Response) Err() error {
	return r.err
}

// Build returns the arranged response or the first recorded error.
func (r *Response) Build() (*http.Response, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.out, nil
}

// Headers adds headers to an arranged response. Values accumulate per name.
type Headers struct {
	r *Response
}

// Header adds value under name.
func (h *Headers) Header(name, value string) *Headers {
	return h.HeaderValues(name, value)
}

// HeaderInt is Header for integer values.
func (h *Headers) HeaderInt(name string, value int64) *Headers {
	return h.Header(name, strconv.FormatInt(value, 10))
}

// HeaderValues adds every one of values under name.
func (h *Headers) HeaderValues(name string, values ...string) *Headers {
	if h.r.err != nil {
		return h
	}
	if len(values) == 0 {
		h.r.Fail(failure.Usagef("values for header %q must not be empty", name))
		return h
	}
	if strings.EqualFold(name, http.ContentTypeHeader) && h.r.out.Headers.Has(http.ContentTypeHeader) {
		h.r.Fail(contentTypePresent())
		return h
	}
	for _, v := range values {
		h.r.out.Headers.Add(name, v)
	}
	return h
}

func contentTypePresent() error {
	return failure.Usagef("%s header is already present", http.ContentTypeHeader)
}
