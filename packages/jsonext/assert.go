package jsonext

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/apythia/packages/assertions"
	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
	"github.com/abdul-hamid-achik/apythia/packages/http"
	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// Body registers a JSON body assertion built by fn.
func Body(b *assertions.Body, fn func(*Expectations)) {
	e := &Expectations{cfg: ConfigFrom(b.Extensions())}
	if fn != nil {
		fn(e)
	}
	if e.err != nil {
		b.Fail(e.err)
		return
	}
	b.DSLExtension(e)
}

type check func(c *failure.Collector, doc gjson.Result)

// Expectations collects JSON checks. All of them run; every mismatch is reported.
type Expectations struct {
	cfg    Config
	err    error
	checks []check
}

// normalize turns value into the generic shape gjson and encoding/json produce.
func (e *Expectations) normalize(value any) (any, error) {
	data, err := e.cfg.Marshal(value)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Expectations) add(c check) *Expectations {
	if e.err == nil {
		e.checks = append(e.checks, c)
	}
	return e
}

// Equals asserts the whole body is semantically equal to value.
func (e *Expectations) Equals(value any) *Expectations {
	if e.err != nil {
		return e
	}
	want, err := e.normalize(value)
	if err != nil {
		e.err = failure.Usagef("cannot encode expected JSON: %v", err)
		return e
	}
	return e.add(equalsCheck(want))
}

// EqualsString asserts the whole body is semantically equal to the JSON in s.
func (e *Expectations) EqualsString(s string) *Expectations {
	if e.err != nil {
		return e
	}
	if !gjson.Valid(s) {
		e.err = failure.Usagef("invalid expected JSON %q", s)
		return e
	}
	return e.add(equalsCheck(gjson.Parse(s).Value()))
}

func equalsCheck(want any) check {
	return func(c *failure.Collector, doc gjson.Result) {
		got := doc.Value()
		if !cmp.Equal(want, got) {
			c.Fail(want, got, "JSON differs (-expected +actual):\n%s", cmp.Diff(want, got))
		}
	}
}

// Path asserts the value at path, in gjson syntax. Bracket indexes such as
// "items[0].id" are accepted too.
func (e *Expectations) Path(path string, value any) *Expectations {
	if e.err != nil {
		return e
	}
	want, err := e.normalize(value)
	if err != nil {
		e.err = failure.Usagef("cannot encode expected value for %q: %v", path, err)
		return e
	}
	return e.add(func(c *failure.Collector, doc gjson.Result) {
		c.WithClue(path, func() {
			result := doc.Get(convertBracketNotation(path))
			if !result.Exists() {
				c.Fail(want, nil, "expected %v, but the path does not exist", want)
				return
			}
			if got := result.Value(); !cmp.Equal(want, got) {
				c.Fail(want, got, "expected %v, got %v", want, got)
			}
		})
	})
}

// PathExists asserts that path is present.
func (e *Expectations) PathExists(path string) *Expectations {
	return e.add(func(c *failure.Collector, doc gjson.Result) {
		c.WithClue(path, func() {
			if !doc.Get(convertBracketNotation(path)).Exists() {
				c.Fail(nil, nil, "expected to exist")
			}
		})
	})
}

// PathMissing asserts that path is absent.
func (e *Expectations) PathMissing(path string) *Expectations {
	return e.add(func(c *failure.Collector, doc gjson.Result) {
		c.WithClue(path, func() {
			if result := doc.Get(convertBracketNotation(path)); result.Exists() {
				c.Fail(nil, result.Value(), "expected not to exist, got %v", result.Value())
			}
		})
	})
}

// PathType asserts the JSON type at path: null, boolean, number, string,
// array or object.
func (e *Expectations) PathType(path, typ string) *Expectations {
	return e.add(func(c *failure.Collector, doc gjson.Result) {
		c.WithClue(path, func() {
			result := doc.Get(convertBracketNotation(path))
			if !result.Exists() {
				c.Fail(typ, nil, "expected type %s, but the path does not exist", typ)
				return
			}
			if got := jsonType(result.Value()); got != typ {
				c.Fail(typ, got, "expected type %s, got %s", typ, got)
			}
		})
	})
}

// MatchesSchema validates the body against a JSON schema document.
func (e *Expectations) MatchesSchema(schema string) *Expectations {
	if e.err != nil {
		return e
	}
	if !gjson.Valid(schema) {
		e.err = failure.Usagef("invalid JSON schema %q", schema)
		return e
	}
	return e.add(schemaCheck([]byte(schema)))
}

// MatchesSchemaFile validates the body against the JSON schema stored at path.
func (e *Expectations) MatchesSchemaFile(path string) *Expectations {
	if e.err != nil {
		return e
	}
	schemaData, err := os.ReadFile(path)
	if err != nil {
		e.err = failure.Usagef("failed to read schema file: %v", err)
		return e
	}
	return e.add(schemaCheck(schemaData))
}

func schemaCheck(schema []byte) check {
	return func(c *failure.Collector, doc gjson.Result) {
		c.WithClue("schema", func() {
			schemaLoader := gojsonschema.NewBytesLoader(schema)
			documentLoader := gojsonschema.NewStringLoader(doc.Raw)

			result, err := gojsonschema.Validate(schemaLoader, documentLoader)
			if err != nil {
				c.Fail(nil, nil, "schema validation error: %v", err)
				return
			}
			for _, desc := range result.Errors() {
				c.Fail(nil, desc.Value(), "%s", desc.String())
			}
		})
	}
}

// Assert implements extension.HTTPDSLExtension.
func (e *Expectations) Assert(_ context.Context, _ string, _ *url.URL, msg http.Message) error {
	if err := http.CheckUTF8Charset(msg.Headers); err != nil {
		return err
	}
	c := &failure.Collector{}
	c.WithClue("json", func() {
		if !gjson.ValidBytes(msg.Body) {
			c.Fail(nil, msg.BodyString(), "expected a JSON body, got %q", truncate(msg.BodyString(), 64))
			return
		}
		doc := gjson.ParseBytes(msg.Body)
		for _, chk := range e.checks {
			chk(c, doc)
		}
	})
	return c.Err()
}

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// convertBracketNotation converts array bracket notation to gjson dot notation
// e.g., "[0].id" -> "0.id", "items[0].tags[1]" -> "items.0.tags.1"
func convertBracketNotation(path string) string {
	result := bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(result, ".")
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return reflect.TypeOf(v).String()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
