package assertions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
	"github.com/abdul-hamid-achik/apythia/packages/expected"
	"github.com/abdul-hamid-achik/apythia/packages/http"
	"github.com/google/go-cmp/cmp"
)

// PartReader calls onPart for every multipart segment of msg, in order.
type PartReader func(ctx context.Context, msg http.Message, onPart func(*http.ActualPart) error) error

// DefaultPartReader parses multipart bodies with mime/multipart.
func DefaultPartReader(_ context.Context, msg http.Message, onPart func(*http.ActualPart) error) error {
	return http.ForEachMultipartPart(msg, onPart)
}

// Evaluator matches an expected request against an actual one.
type Evaluator struct {
	readParts PartReader
}

// EvaluatorOption is a functional option for configuring an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithPartReader replaces the multipart reader.
func WithPartReader(r PartReader) EvaluatorOption {
	return func(e *Evaluator) {
		e.readParts = r
	}
}

func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{readParts: DefaultPartReader}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate checks every asserted field of exp against actual. Mismatches are
// collected into one *failure.AssertionError. A body that cannot be decoded
// yields *failure.UnsupportedEncodingError instead.
func (e *Evaluator) Evaluate(ctx context.Context, exp *expected.Request, actual *http.ActualRequest) error {
	if exp == nil {
		return nil
	}
	c := &failure.Collector{}

	if exp.Method != nil {
		c.WithClue("method", func() {
			if !strings.EqualFold(*exp.Method, actual.Method) {
				c.Fail(*exp.Method, actual.Method, "expected %q, got %q", *exp.Method, actual.Method)
			}
		})
	}

	if exp.URL != nil {
		c.WithClue("url", func() {
			matchURL(c, exp.URL, actual.URL)
		})
	}

	if exp.Headers != nil {
		c.WithClue("headers", func() {
			matchHeaders(c, exp.Headers, actual.Headers)
		})
	}

	if exp.Body != nil {
		var err error
		c.WithClue("body", func() {
			err = e.matchBody(ctx, c, exp.Body, actual.Method, actual.URL, actual.Message)
		})
		if err != nil {
			return err
		}
	}

	return c.Err()
}

func matchURL(c *failure.Collector, exp *expected.URL, actual *url.URL) {
	if exp.URL != nil && actual.String() != *exp.URL {
		c.Fail(*exp.URL, actual.String(), "expected url %q, got %q", *exp.URL, actual.String())
	}
	if exp.Path != nil && actual.Path != *exp.Path {
		c.Fail(*exp.Path, actual.Path, "expected path %q, got %q", *exp.Path, actual.Path)
	}
	if exp.PathSuffix != nil && !strings.HasSuffix(actual.Path, *exp.PathSuffix) {
		c.Fail(*exp.PathSuffix, actual.Path, "expected '%s' to end with '%s'", actual.Path, *exp.PathSuffix)
	}
	if exp.Query != nil {
		c.WithClue("query", func() {
			matchQuery(c, exp.Query, actual.RawQuery)
		})
	}
}

func matchQuery(c *failure.Collector, exp *expected.Query, rawQuery string) {
	params, err := http.QueryValues(rawQuery)
	if err != nil {
		c.Fail(nil, rawQuery, "cannot parse query %q: %v", rawQuery, err)
		return
	}

	if exp.NoParameters && len(params) > 0 {
		c.Fail(nil, rawQuery, "expected no query parameters, got %q", rawQuery)
	}

	for _, p := range exp.Parameters {
		values, present := params[p.Name]
		for _, v := range p.Values {
			if containsQueryValue(values, v) {
				continue
			}
			if !present {
				c.Fail(http.FormatQueryValue(v), nil, "expected parameter %q with value %s, but it is absent",
					p.Name, http.FormatQueryValue(v))
				continue
			}
			c.Fail(http.FormatQueryValue(v), formatQueryValues(values), "expected parameter %q to contain value %s, got %s",
				p.Name, http.FormatQueryValue(v), formatQueryValues(values))
		}
	}

	for _, name := range exp.MissingParameters {
		if values, ok := params[name]; ok {
			c.Fail(nil, formatQueryValues(values), "expected parameter %q to be absent, got %s",
				name, formatQueryValues(values))
		}
	}
}

func containsQueryValue(values []*string, want *string) bool {
	for _, v := range values {
		if v == nil && want == nil {
			return true
		}
		if v != nil && want != nil && *v == *want {
			return true
		}
	}
	return false
}

func formatQueryValues(values []*string) string {
	formatted := make([]string, len(values))
	for i, v := range values {
		formatted[i] = http.FormatQueryValue(v)
	}
	return "[" + strings.Join(formatted, ", ") + "]"
}

func matchHeaders(c *failure.Collector, exp *expected.Headers, actual http.Headers) {
	for _, entry := range exp.Entries {
		values := actual.Values(entry.Name)
		for _, want := range entry.Values {
			if containsString(values, want) {
				continue
			}
			if len(values) == 0 {
				c.Fail(want, nil, "expected header %q to contain %q, but it is absent", entry.Name, want)
				continue
			}
			c.Fail(want, values, "expected header %q to contain %q, got %q", entry.Name, want, values)
		}
	}
}

// matchBody records body mismatches in c. It returns an error only when the
// comparison itself cannot be carried out.
func (e *Evaluator) matchBody(ctx context.Context, c *failure.Collector, body expected.Body, method string, u *url.URL, msg http.Message) error {
	switch b := body.(type) {
	case expected.EmptyBody:
		if len(msg.Body) != 0 {
			c.Fail(0, len(msg.Body), "expected an empty body, got %d byte(s)", len(msg.Body))
		}

	case expected.BytesBody:
		if !bytes.Equal(b.Value, msg.Body) {
			c.Fail(b.Value, msg.Body, "bytes differ (-expected +actual):\n%s", cmp.Diff(b.Value, msg.Body))
		}

	case expected.PlainTextBody:
		if err := http.CheckUTF8Charset(msg.Headers); err != nil {
			return err
		}
		if !utf8.Valid(msg.Body) {
			c.Fail(b.Value, msg.Body, "expected UTF-8 text %q, got %d byte(s) of invalid UTF-8", b.Value, len(msg.Body))
			return nil
		}
		if actual := string(msg.Body); actual != b.Value {
			c.Fail(b.Value, actual, "text differs (-expected +actual):\n%s", cmp.Diff(b.Value, actual))
		}

	case expected.MultipartFormDataBody:
		actual, ok, err := e.collectParts(ctx, c, msg)
		if !ok || err != nil {
			return err
		}
		return e.matchAllParts(ctx, c, b.Parts, actual, method, u)

	case expected.PartialMultipartFormDataBody:
		actual, ok, err := e.collectParts(ctx, c, msg)
		if !ok || err != nil {
			return err
		}
		return e.matchSomeParts(ctx, c, b, actual, method, u)

	case expected.DSLExtensionBody:
		err := b.Extension.Assert(ctx, method, u, msg)
		var assertionErr *failure.AssertionError
		if errors.As(err, &assertionErr) {
			if assertionErr != nil {
				c.Merge(assertionErr.Failures())
			}
			return nil
		}
		return err

	default:
		return fmt.Errorf("unknown body assertion %T", body)
	}
	return nil
}

// collectParts reads every multipart segment. A body that is not valid
// multipart is a mismatch; only a cancelled context is returned as an error.
func (e *Evaluator) collectParts(ctx context.Context, c *failure.Collector, msg http.Message) ([]*http.ActualPart, bool, error) {
	var parts []*http.ActualPart
	err := e.readParts(ctx, msg, func(p *http.ActualPart) error {
		parts = append(parts, p)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		c.Fail(nil, msg.Headers.Get(http.ContentTypeHeader), "cannot read multipart body: %v", err)
		return nil, false, nil
	}
	return parts, true, nil
}
