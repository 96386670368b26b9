// Package responsefile loads scripted response sequences from YAML.
//
//	responses:
//	  - status: 201
//	    headers:
//	      Location: /users/{{$uuid()}}
//	    json:
//	      id: "{{$uuid()}}"
//	      createdAt: "{{$now()}}"
//	  - status: 200
//	    text: plain body
//	  - status: 204
//
// Each entry may set at most one of text, json or base64. Header values, text
// and JSON string leaves may contain builtin template calls. A json value
// written as a string is taken as raw JSON.
package responsefile

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/abdul-hamid-achik/apythia/packages/arrange"
	"github.com/abdul-hamid-achik/apythia/packages/builtin"
	"github.com/abdul-hamid-achik/apythia/packages/jsonext"
	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// File is a parsed response file.
type File struct {
	Path      string  `yaml:"-"`
	Responses []Entry `yaml:"responses"`
}

// Entry describes one arranged response.
type Entry struct {
	Status      int               `yaml:"status,omitempty"`
	Headers     map[string]Values `yaml:"headers,omitempty"`
	Text        *string           `yaml:"text,omitempty"`
	Charset     string            `yaml:"charset,omitempty"`
	JSON        any               `yaml:"json,omitempty"`
	Base64      *string           `yaml:"base64,omitempty"`
	ContentType string            `yaml:"contentType,omitempty"`

	line int
}

// Values holds header values written either as a scalar or a list.
type Values []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = Values{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*v = list
		return nil
	default:
		return fmt.Errorf("line %d: header values must be a string or a list of strings", node.Line)
	}
}

// UnmarshalYAML records the entry's line for error messages.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	type plain Entry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = Entry(p)
	e.line = node.Line
	return nil
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read response file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse parses a response file and checks every entry.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate reports every malformed entry.
func (f *File) Validate() error {
	var result *multierror.Error
	for i := range f.Responses {
		if err := f.Responses[i].validate(); err != nil {
			result = multierror.Append(result, f.Responses[i].wrap(i, err))
		}
	}
	return result.ErrorOrNil()
}

func (e *Entry) validate() error {
	bodies := 0
	if e.Text != nil {
		bodies++
	}
	if e.JSON != nil {
		bodies++
	}
	if e.Base64 != nil {
		bodies++
	}
	if bodies > 1 {
		return errors.New("only one of text, json or base64 may be set")
	}
	if e.Charset != "" && e.Text == nil {
		return errors.New("charset requires text")
	}
	if s, ok := e.JSON.(string); ok && !gjson.Valid(s) {
		return fmt.Errorf("json string is not valid JSON: %q", s)
	}
	if e.Base64 != nil {
		if _, err := base64.StdEncoding.DecodeString(*e.Base64); err != nil {
			return fmt.Errorf("invalid base64 body: %w", err)
		}
	}
	return nil
}

func (e *Entry) wrap(i int, err error) error {
	if e.line > 0 {
		return fmt.Errorf("response %d (line %d): %w", i+1, e.line, err)
	}
	return fmt.Errorf("response %d: %w", i+1, err)
}

// Arranger queues built responses; *apythia.Apythia satisfies it.
type Arranger interface {
	ArrangeNextResponse(ctx context.Context, fn func(*arrange.Response)) error
}

// Arrange queues every entry on a, in file order.
func (f *File) Arrange(ctx context.Context, a Arranger, funcs *builtin.Registry) error {
	for i := range f.Responses {
		e := &f.Responses[i]
		if err := a.ArrangeNextResponse(ctx, func(r *arrange.Response) { e.Apply(r, funcs) }); err != nil {
			return e.wrap(i, err)
		}
	}
	return nil
}

// Apply configures r from the entry, expanding template calls with funcs.
func (e *Entry) Apply(r *arrange.Response, funcs *builtin.Registry) {
	if funcs == nil {
		funcs = builtin.NewRegistry()
	}
	expand := func(s string) string {
		out, err := funcs.Expand(s)
		if err != nil {
			r.Fail(err)
			return s
		}
		return out
	}

	if e.Status != 0 {
		r.StatusCode(e.Status)
	}
	if len(e.Headers) > 0 {
		r.Headers(func(h *arrange.Headers) {
			for _, name := range slices.Sorted(maps.Keys(e.Headers)) {
				values := make([]string, 0, len(e.Headers[name]))
				for _, v := range e.Headers[name] {
					values = append(values, expand(v))
				}
				h.HeaderValues(name, values...)
			}
		})
	}

	switch {
	case e.Text != nil:
		text := expand(*e.Text)
		switch {
		case e.ContentType != "":
			r.BytesBody([]byte(text), e.ContentType)
		case e.Charset != "":
			r.PlainTextBodyCharset(text, e.Charset)
		default:
			r.PlainTextBody(text)
		}
	case e.JSON != nil:
		opts := []jsonext.Option{}
		if e.ContentType != "" {
			opts = append(opts, jsonext.WithContentType(e.ContentType))
		}
		if s, ok := e.JSON.(string); ok {
			jsonext.JSONStringBody(r, expand(s), opts...)
			return
		}
		value, err := expandJSON(e.JSON, funcs)
		if err != nil {
			r.Fail(err)
			return
		}
		jsonext.JSONBody(r, value, opts...)
	case e.Base64 != nil:
		data, err := base64.StdEncoding.DecodeString(*e.Base64)
		if err != nil {
			r.Fail(fmt.Errorf("invalid base64 body: %w", err))
			return
		}
		r.BytesBody(data, e.ContentType)
	}
}

// expandJSON returns a copy of v with template calls in string leaves resolved.
func expandJSON(v any, funcs *builtin.Registry) (any, error) {
	switch val := v.(type) {
	case string:
		return funcs.Expand(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			expanded, err := expandJSON(item, funcs)
			if err != nil {
				return nil, err
			}
			out[k] = expanded
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			expanded, err := expandJSON(item, funcs)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	default:
		return val, nil
	}
}
