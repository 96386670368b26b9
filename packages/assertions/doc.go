// Package assertions provides the request assertion DSL and the engine that
// matches its result against a captured request.
//
// A DSL invocation fills a Request builder:
//
//	exp, err := assertions.BuildRequest(reg, func(r *assertions.Request) {
//		r.Method("POST")
//		r.URL(func(u *assertions.URL) { u.Path("/upload") })
//		r.Headers(func(h *assertions.Headers) { h.Header("X-Token", "abc") })
//		r.Body(func(b *assertions.Body) {
//			b.MultipartFormData(func(m *assertions.MultipartFormData) {
//				m.Part("a", func(p *assertions.Part) {
//					p.Body(func(b *assertions.Body) { b.PlainText("first") })
//				})
//			})
//		})
//	})
//
// Every builder method may be called at most once per scope, except the
// accumulating ones (Header, Parameter, Part...). The first misuse is kept
// and returned by Build as a *failure.UsageError.
//
// The Evaluator then compares the result field by field. Unset fields are
// skipped, every mismatch is collected into one *failure.AssertionError:
//   - method: case-insensitive equality
//   - url, path: exact match; pathSuffix: suffix match
//   - query parameters and headers: each expected value must be contained in
//     the actual values for that name
//   - body: empty, exact bytes, UTF-8 text, multipart parts in any order, or a
//     DSL extension
package assertions
