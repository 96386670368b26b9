// Package expected holds the immutable description of a request that the
// assertion DSL produces. A nil pointer or nil interface field means "not
// asserted": the matching engine skips it.
package expected

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/apythia/packages/extension"
)

// Request is the expected shape of one outgoing request.
type Request struct {
	Method  *string
	URL     *URL
	Headers *Headers
	Body    Body
}

// IsEmpty reports whether nothing at all is asserted.
func (r *Request) IsEmpty() bool {
	return r.Method == nil && r.URL == nil && r.Headers == nil && r.Body == nil
}

// URL holds the URL expectations. Each field is independent.
type URL struct {
	URL        *string
	Path       *string
	PathSuffix *string
	Query      *Query
}

// Query holds query string expectations.
type Query struct {
	// Parameters keeps declaration order. A nil value means the parameter is
	// present without a value ("?flag").
	Parameters        []QueryParameter
	MissingParameters []string
	NoParameters      bool
}

// QueryParameter lists the values that must appear for one parameter name.
type QueryParameter struct {
	Name   string
	Values []*string
}

// Headers lists the values that must appear for each header name.
type Headers struct {
	Entries []HeaderValues
}

// HeaderValues are the required values of one header.
type HeaderValues struct {
	Name   string
	Values []string
}

// Add appends values to name, merging names that differ only in case.
func (h *Headers) Add(name string, values ...string) {
	for i := range h.Entries {
		if strings.EqualFold(h.Entries[i].Name, name) {
			h.Entries[i].Values = append(h.Entries[i].Values, values...)
			return
		}
	}
	h.Entries = append(h.Entries, HeaderValues{Name: name, Values: append([]string(nil), values...)})
}

// Values returns the required values of name.
func (h *Headers) Values(name string) []string {
	for _, e := range h.Entries {
		if strings.EqualFold(e.Name, name) {
			return e.Values
		}
	}
	return nil
}

// Body is one of EmptyBody, BytesBody, PlainTextBody, MultipartFormDataBody,
// PartialMultipartFormDataBody or DSLExtensionBody.
type Body interface {
	// Kind names the body assertion for diagnostics.
	Kind() string
	sealed()
}

type EmptyBody struct{}

type BytesBody struct {
	Value []byte
}

type PlainTextBody struct {
	Value string
}

type MultipartFormDataBody struct {
	Parts []*FormDataPart
}

type PartialMultipartFormDataBody struct {
	Parts        []*FormDataPart
	MissingParts []string
}

type DSLExtensionBody struct {
	Extension extension.HTTPDSLExtension
}

func (EmptyBody) Kind() string                    { return "empty" }
func (BytesBody) Kind() string                    { return "bytes" }
func (PlainTextBody) Kind() string                { return "plain text" }
func (MultipartFormDataBody) Kind() string        { return "multipart/form-data" }
func (PartialMultipartFormDataBody) Kind() string { return "partial multipart/form-data" }
func (DSLExtensionBody) Kind() string             { return "dsl extension" }

func (EmptyBody) sealed()                    {}
func (BytesBody) sealed()                    {}
func (PlainTextBody) sealed()                {}
func (MultipartFormDataBody) sealed()        {}
func (PartialMultipartFormDataBody) sealed() {}
func (DSLExtensionBody) sealed()             {}

// FormDataPart is the expected shape of one multipart segment.
type FormDataPart struct {
	Name string
	// Filename is only compared when set.
	Filename *string
	Headers  *Headers
	Body     Body
}

// String identifies the part in failure clues.
func (p *FormDataPart) String() string {
	if p.Filename != nil {
		return fmt.Sprintf("part %q (filename %q)", p.Name, *p.Filename)
	}
	return fmt.Sprintf("part %q", p.Name)
}
