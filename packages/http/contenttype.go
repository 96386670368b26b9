package http

import (
	"fmt"
	"mime"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
)

// Param is one Content-Type parameter.
type Param struct {
	Name  string
	Value string
}

// P is shorthand for Param{Name: name, Value: value}.
func P(name, value string) Param {
	return Param{Name: name, Value: value}
}

// ContentType is a parsed Content-Type value.
type ContentType struct {
	MediaType string
	Params    []Param
}

// FormatContentType renders "<mediaType>; k1=v1; k2=v2" keeping parameter order.
func FormatContentType(mediaType string, params ...Param) string {
	var sb strings.Builder
	sb.WriteString(mediaType)
	for _, p := range params {
		sb.WriteString("; ")
		sb.WriteString(p.Name)
		sb.WriteString("=")
		sb.WriteString(p.Value)
	}
	return sb.String()
}

// ParseContentType parses a Content-Type header value. Parameter names are
// lower-cased and sorted since the header grammar gives them no order.
func ParseContentType(value string) (ContentType, error) {
	mediaType, params, err := mime.ParseMediaType(value)
	if err != nil {
		return ContentType{}, fmt.Errorf("invalid content type %q: %w", value, err)
	}
	ct := ContentType{MediaType: mediaType}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ct.Params = append(ct.Params, Param{Name: name, Value: params[name]})
	}
	return ct, nil
}

// String formats the content type.
func (c ContentType) String() string {
	return FormatContentType(c.MediaType, c.Params...)
}

// Param returns the value of the named parameter.
func (c ContentType) Param(name string) (string, bool) {
	for _, p := range c.Params {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// Charset returns the charset parameter, if any.
func (c ContentType) Charset() (string, bool) {
	return c.Param("charset")
}

// Is reports whether the media type equals mediaType, ignoring case.
func (c ContentType) Is(mediaType string) bool {
	return strings.EqualFold(c.MediaType, mediaType)
}

// ContentType parses the Content-Type header. ok is false when the header is absent.
func (h Headers) ContentType() (ct ContentType, ok bool, err error) {
	value := h.Get(ContentTypeHeader)
	if value == "" {
		return ContentType{}, false, nil
	}
	ct, err = ParseContentType(value)
	if err != nil {
		return ContentType{}, true, err
	}
	return ct, true, nil
}

// CheckUTF8Charset fails with *failure.UnsupportedEncodingError when headers
// declare a charset other than UTF-8. A missing header or parameter is accepted.
func CheckUTF8Charset(h Headers) error {
	value := h.Get(ContentTypeHeader)
	if value == "" {
		return nil
	}
	ct, err := ParseContentType(value)
	if err != nil {
		// Unparseable headers carry no usable charset; fall back to a raw scan.
		charset, found := rawCharset(value)
		if found && !isUTF8(charset) {
			return &failure.UnsupportedEncodingError{Charset: charset}
		}
		return nil
	}
	if charset, found := ct.Charset(); found && !isUTF8(charset) {
		return &failure.UnsupportedEncodingError{Charset: charset}
	}
	return nil
}

func isUTF8(charset string) bool {
	charset = strings.Trim(charset, `"`)
	return strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8")
}

func rawCharset(value string) (string, bool) {
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && strings.EqualFold(strings.TrimSpace(kv[0]), "charset") {
			return strings.TrimSpace(kv[1]), true
		}
	}
	return "", false
}
