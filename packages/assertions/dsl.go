package assertions

import (
	"strconv"

	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
	"github.com/abdul-hamid-achik/apythia/packages/core/guard"
	"github.com/abdul-hamid-achik/apythia/packages/expected"
	"github.com/abdul-hamid-achik/apythia/packages/extension"
)

// scope is shared by every builder of one DSL invocation. The first usage
// error is kept; later calls become no-ops.
type scope struct {
	err        error
	extensions *extension.Registry
}

func (s *scope) setError(err error) {
	if s.err == nil {
		s.err = err
	}
}

// check runs the guard and reports whether the caller may proceed.
func (s *scope) check(c *guard.CallCountChecker) bool {
	if s.err != nil {
		return false
	}
	if err := c.Check(); err != nil {
		s.setError(err)
		return false
	}
	return true
}

func (s *scope) usage(format string, args ...any) {
	s.setError(failure.Usagef(format, args...))
}

// BuildRequest runs fn against a fresh Request builder and returns the result.
func BuildRequest(extensions *extension.Registry, fn func(*Request)) (*expected.Request, error) {
	r := NewRequest(extensions)
	if fn != nil {
		fn(r)
	}
	return r.Build()
}

// Request collects expectations for one outgoing request.
type Request struct {
	s           *scope
	methodCalls *guard.CallCountChecker
	urlCalls    *guard.CallCountChecker
	headerCalls *guard.CallCountChecker
	bodyCalls   *guard.CallCountChecker
	out         expected.Request
}

// NewRequest returns an empty Request builder.
func NewRequest(extensions *extension.Registry) *Request {
	return &Request{
		s:           &scope{extensions: extensions},
		methodCalls: guard.NewCallCountChecker("method"),
		urlCalls:    guard.NewCallCountChecker("url"),
		headerCalls: guard.NewCallCountChecker("headers"),
		bodyCalls:   guard.NewCallCountChecker("body"),
	}
}

// Method asserts the request method, compared case-insensitively.
func (r *Request) Method(method string) *Request {
	if r.s.check(r.methodCalls) {
		r.out.Method = &method
	}
	return r
}

// URL asserts properties of the request URL.
func (r *Request) URL(fn func(*URL)) *Request {
	if !r.s.check(r.urlCalls) {
		return r
	}
	u := newURL(r.s)
	if fn != nil {
		fn(u)
	}
	r.out.URL = &u.out
	return r
}

// Headers asserts request headers.
func (r *Request) Headers(fn func(*Headers)) *Request {
	if !r.s.check(r.headerCalls) {
		return r
	}
	r.out.Headers = runHeaders(r.s, fn)
	return r
}

// Body asserts the request body.
func (r *Request) Body(fn func(*Body)) *Request {
	if !r.s.check(r.bodyCalls) {
		return r
	}
	r.out.Body = runBody(r.s, fn)
	return r
}

// Extensions returns the extension config registry.
func (r *Request) Extensions() *extension.Registry {
	return r.s.extensions
}

// Err returns the first usage error, if any.
func (r *Request) Err() error {
	return r.s.err
}

// Build returns the expected request or the first usage error.
func (r *Request) Build() (*expected.Request, error) {
	if r.s.err != nil {
		return nil, r.s.err
	}
	out := r.out
	return &out, nil
}

// URL collects URL expectations. URL, Path and PathSuffix may be combined.
type URL struct {
	s               *scope
	urlCalls        *guard.CallCountChecker
	pathCalls       *guard.CallCountChecker
	pathSuffixCalls *guard.CallCountChecker
	queryCalls      *guard.CallCountChecker
	out             expected.URL
}

func newURL(s *scope) *URL {
	return &URL{
		s:               s,
		urlCalls:        guard.NewCallCountChecker("url"),
		pathCalls:       guard.NewCallCountChecker("path"),
		pathSuffixCalls: guard.NewCallCountChecker("pathSuffix"),
		queryCalls:      guard.NewCallCountChecker("query"),
	}
}

// URL asserts the full URL string.
func (u *URL) URL(url string) *URL {
	if u.s.check(u.urlCalls) {
		u.out.URL = &url
	}
	return u
}

// Path asserts the whole URL path.
func (u *URL) Path(path string) *URL {
	if u.s.check(u.pathCalls) {
		u.out.Path = &path
	}
	return u
}

// PathSuffix asserts that the URL path ends with suffix.
func (u *URL) PathSuffix(suffix string) *URL {
	if u.s.check(u.pathSuffixCalls) {
		u.out.PathSuffix = &suffix
	}
	return u
}

// Query asserts query parameters.
func (u *URL) Query(fn func(*Query)) *URL {
	if !u.s.check(u.queryCalls) {
		return u
	}
	q := &Query{
		s:                 u.s,
		noParametersCalls: guard.NewCallCountChecker("noParameters"),
	}
	if fn != nil {
		fn(q)
	}
	u.out.Query = &q.out
	return u
}

type queryGroup int

const (
	parameterGroup queryGroup = iota
	noParametersGroup
)

func (g queryGroup) String() string {
	if g == noParametersGroup {
		return "noParameters"
	}
	return "parameter assertions"
}

// Query collects query parameter expectations. NoParameters cannot be mixed
// with any parameter-level call.
type Query struct {
	s                 *scope
	groups            guard.MutualExclusivityChecker[queryGroup]
	noParametersCalls *guard.CallCountChecker
	out               expected.Query
}

func (q *Query) enter(group queryGroup) bool {
	if q.s.err != nil {
		return false
	}
	if err := q.groups.Check(group); err != nil {
		q.s.setError(err)
		return false
	}
	return true
}

func (q *Query) add(name string, values ...*string) {
	for i := range q.out.Parameters {
		if q.out.Parameters[i].Name == name {
			q.out.Parameters[i].Values = append(q.out.Parameters[i].Values, values...)
			return
		}
	}
	q.out.Parameters = append(q.out.Parameters, expected.QueryParameter{Name: name, Values: values})
}

// Parameter asserts that name has value among its values.
func (q *Query) Parameter(name, value string) *Query {
	if q.enter(parameterGroup) {
		q.add(name, &value)
	}
	return q
}

// ParameterInt is Parameter for integer values.
func (q *Query) ParameterInt(name string, value int64) *Query {
	return q.Parameter(name, strconv.FormatInt(value, 10))
}

// ParameterWithoutValue asserts that name occurs without a value, as in "?flag".
func (q *Query) ParameterWithoutValue(name string) *Query {
	if q.enter(parameterGroup) {
		q.add(name, nil)
	}
	return q
}

// Parameters asserts that name has every one of values; extra actual values
// are allowed.
func (q *Query) Parameters(name string, values ...string) *Query {
	if !q.enter(parameterGroup) {
		return q
	}
	if len(values) == 0 {
		q.s.usage("parameters for %q must not be empty", name)
		return q
	}
	ptrs := make([]*string, len(values))
	for i, v := range values {
		ptrs[i] = &v
	}
	q.add(name, ptrs...)
	return q
}

// MissingParameters asserts that none of names occur. Calls accumulate.
func (q *Query) MissingParameters(names ...string) *Query {
	if !q.enter(parameterGroup) {
		return q
	}
	if len(names) == 0 {
		q.s.usage("missingParameters must not be empty")
		return q
	}
	for _, name := range names {
		if !containsString(q.out.MissingParameters, name) {
			q.out.MissingParameters = append(q.out.MissingParameters, name)
		}
	}
	return q
}

// NoParameters asserts that the URL has no query parameters at all.
func (q *Query) NoParameters() *Query {
	if q.enter(noParametersGroup) && q.s.check(q.noParametersCalls) {
		q.out.NoParameters = true
	}
	return q
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
