package assertions

import (
	"strconv"

	"github.com/abdul-hamid-achik/apythia/packages/core/guard"
	"github.com/abdul-hamid-achik/apythia/packages/expected"
	"github.com/abdul-hamid-achik/apythia/packages/http"
)

// Headers collects header expectations. It is used for requests and for
// multipart parts alike. Values accumulate per name; each one must appear
// among the actual values of that header.
type Headers struct {
	s                *scope
	contentTypeCalls *guard.CallCountChecker
	out              expected.Headers
}

func runHeaders(s *scope, fn func(*Headers)) *expected.Headers {
	h := &Headers{
		s:                s,
		contentTypeCalls: guard.NewCallCountChecker("contentType"),
	}
	if fn != nil {
		fn(h)
	}
	return &h.out
}

// Header asserts that value is among the values of name. Other values are
// allowed.
func (h *Headers) Header(name, value string) *Headers {
	if h.s.err == nil {
		h.out.Add(name, value)
	}
	return h
}

// HeaderInt is Header for integer values.
func (h *Headers) HeaderInt(name string, value int64) *Headers {
	return h.Header(name, strconv.FormatInt(value, 10))
}

// HeaderValues asserts that name has every one of values; extra actual values
// are allowed.
func (h *Headers) HeaderValues(name string, values ...string) *Headers {
	if h.s.err != nil {
		return h
	}
	if len(values) == 0 {
		h.s.usage("values for header %q must not be empty", name)
		return h
	}
	h.out.Add(name, values...)
	return h
}

// ContentType asserts the Content-Type header as "<mediaType>; k1=v1; k2=v2",
// keeping the parameter order given.
func (h *Headers) ContentType(mediaType string, params ...http.Param) *Headers {
	if h.s.check(h.contentTypeCalls) {
		h.out.Add(http.ContentTypeHeader, http.FormatContentType(mediaType, params...))
	}
	return h
}
