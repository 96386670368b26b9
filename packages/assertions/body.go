package assertions

import (
	"github.com/abdul-hamid-achik/apythia/packages/core/guard"
	"github.com/abdul-hamid-achik/apythia/packages/expected"
	"github.com/abdul-hamid-achik/apythia/packages/extension"
)

// Body selects exactly one body assertion.
type Body struct {
	s     *scope
	calls *guard.CallCountChecker
	out   expected.Body
}

func runBody(s *scope, fn func(*Body)) expected.Body {
	b := &Body{
		s:     s,
		calls: guard.NewCallCountChecker("content type assertion"),
	}
	if fn != nil {
		fn(b)
	}
	return b.out
}

// Empty asserts a zero-length body.
func (b *Body) Empty() {
	if b.s.check(b.calls) {
		b.out = expected.EmptyBody{}
	}
}

// Bytes asserts the exact body bytes.
func (b *Body) Bytes(value []byte) {
	if b.s.check(b.calls) {
		b.out = expected.BytesBody{Value: append([]byte{}, value...)}
	}
}

// PlainText asserts the body decodes as UTF-8 to exactly value.
func (b *Body) PlainText(value string) {
	if b.s.check(b.calls) {
		b.out = expected.PlainTextBody{Value: value}
	}
}

// MultipartFormData asserts a multipart/form-data body whose parts match the
// declared ones exactly, in any order.
func (b *Body) MultipartFormData(fn func(*MultipartFormData)) {
	if !b.s.check(b.calls) {
		return
	}
	m := &MultipartFormData{parts: parts{s: b.s}}
	if fn != nil {
		fn(m)
	}
	if b.s.err != nil {
		return
	}
	if len(m.out) == 0 {
		b.s.usage("multipart form data must have at least one part")
		return
	}
	b.out = expected.MultipartFormDataBody{Parts: m.out}
}

// PartialMultipartFormData asserts that the declared parts are present and the
// missing ones are not. Other actual parts are ignored.
func (b *Body) PartialMultipartFormData(fn func(*PartialMultipartFormData)) {
	if !b.s.check(b.calls) {
		return
	}
	m := &PartialMultipartFormData{parts: parts{s: b.s}}
	if fn != nil {
		fn(m)
	}
	b.out = expected.PartialMultipartFormDataBody{Parts: m.out, MissingParts: m.missing}
}

// DSLExtension delegates the body assertion to ext.
func (b *Body) DSLExtension(ext extension.HTTPDSLExtension) {
	if !b.s.check(b.calls) {
		return
	}
	if ext == nil {
		b.s.usage("dsl extension must not be nil")
		return
	}
	b.out = expected.DSLExtensionBody{Extension: ext}
}

// Extensions returns the extension config registry.
func (b *Body) Extensions() *extension.Registry {
	return b.s.extensions
}

// Fail records a usage error found by an extension helper. The first error
// of the DSL invocation wins.
func (b *Body) Fail(err error) {
	if err != nil {
		b.s.setError(err)
	}
}

// parts is shared by the full and the partial multipart builders.
type parts struct {
	s   *scope
	out []*expected.FormDataPart
}

// Part declares a part without a filename assertion.
func (p *parts) Part(name string, fn func(*Part)) {
	p.add(name, nil, fn)
}

// FilePart declares a part whose filename must equal filename.
func (p *parts) FilePart(name, filename string, fn func(*Part)) {
	p.add(name, &filename, fn)
}

func (p *parts) add(name string, filename *string, fn func(*Part)) {
	if p.s.err != nil {
		return
	}
	part := &Part{
		s:           p.s,
		headerCalls: guard.NewCallCountChecker("headers"),
		bodyCalls:   guard.NewCallCountChecker("body"),
		out:         expected.FormDataPart{Name: name, Filename: filename},
	}
	if fn != nil {
		fn(part)
	}
	p.out = append(p.out, &part.out)
}

// MultipartFormData declares the complete set of parts.
type MultipartFormData struct {
	parts
}

// PartialMultipartFormData declares a subset of parts plus names that must
// not appear.
type PartialMultipartFormData struct {
	parts
	missing []string
}

// MissingParts asserts that no actual part carries any of names. Calls accumulate.
func (m *PartialMultipartFormData) MissingParts(names ...string) {
	if m.s.err != nil {
		return
	}
	for _, name := range names {
		if !containsString(m.missing, name) {
			m.missing = append(m.missing, name)
		}
	}
}

// Part collects the expectations of one multipart segment.
type Part struct {
	s           *scope
	headerCalls *guard.CallCountChecker
	bodyCalls   *guard.CallCountChecker
	out         expected.FormDataPart
}

// Headers asserts part headers.
func (p *Part) Headers(fn func(*Headers)) {
	if p.s.check(p.headerCalls) {
		p.out.Headers = runHeaders(p.s, fn)
	}
}

// Body asserts the part body. Parts may nest multipart bodies.
func (p *Part) Body(fn func(*Body)) {
	if p.s.check(p.bodyCalls) {
		p.out.Body = runBody(p.s, fn)
	}
}
