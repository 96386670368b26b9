package failure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// UsageError reports an illegal use of the DSL.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// Usagef builds a UsageError from a format string.
func Usagef(format string, args ...any) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// UnsupportedEncodingError is returned when a body declares a charset that cannot be decoded.
type UnsupportedEncodingError struct {
	Charset string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported encoding %q: only UTF-8 bodies can be compared", e.Charset)
}

// Failure is a single mismatch between the expected and the actual request.
type Failure struct {
	// Clue is the path of the asserted field, e.g. `body > part "file" > headers`.
	Clue     string
	Message  string
	Expected any
	Actual   any
}

func (f *Failure) Error() string {
	if f.Clue == "" {
		return f.Message
	}
	return f.Clue + ": " + f.Message
}

// AssertionError aggregates every Failure found while matching one request.
type AssertionError struct {
	errs *multierror.Error
}

// NewAssertionError wraps the given failures. It returns nil when there are none.
func NewAssertionError(failures ...*Failure) *AssertionError {
	var merr *multierror.Error
	for _, f := range failures {
		merr = multierror.Append(merr, f)
	}
	if merr == nil {
		return nil
	}
	merr.ErrorFormat = formatFailures
	return &AssertionError{errs: merr}
}

func (e *AssertionError) Error() string {
	return e.errs.Error()
}

func (e *AssertionError) Unwrap() error {
	return e.errs
}

// Failures returns the individual mismatches in the order they were found.
func (e *AssertionError) Failures() []*Failure {
	result := make([]*Failure, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		var f *Failure
		if errors.As(err, &f) {
			result = append(result, f)
		}
	}
	return result
}

func formatFailures(errs []error) string {
	if len(errs) == 1 {
		return "assertion failed: " + errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "  * " + err.Error()
	}
	return fmt.Sprintf("%d assertions failed:\n%s", len(errs), strings.Join(lines, "\n"))
}

// Collector accumulates failures under a stack of clues.
type Collector struct {
	clues    []string
	failures []*Failure
}

// WithClue runs fn with clue pushed onto the clue stack.
func (c *Collector) WithClue(clue string, fn func()) {
	c.clues = append(c.clues, clue)
	defer func() { c.clues = c.clues[:len(c.clues)-1] }()
	fn()
}

// Fail records a mismatch at the current clue.
func (c *Collector) Fail(expected, actual any, format string, args ...any) {
	c.failures = append(c.failures, &Failure{
		Clue:     strings.Join(c.clues, " > "),
		Message:  fmt.Sprintf(format, args...),
		Expected: expected,
		Actual:   actual,
	})
}

// Merge records failures produced elsewhere, prefixing their clues with the current one.
func (c *Collector) Merge(failures []*Failure) {
	prefix := strings.Join(c.clues, " > ")
	for _, f := range failures {
		clue := f.Clue
		switch {
		case prefix == "":
		case clue == "":
			clue = prefix
		default:
			clue = prefix + " > " + clue
		}
		c.failures = append(c.failures, &Failure{Clue: clue, Message: f.Message, Expected: f.Expected, Actual: f.Actual})
	}
}

// Failures returns the collected failures.
func (c *Collector) Failures() []*Failure {
	return c.failures
}

// Err returns an *AssertionError for the collected failures, or nil.
func (c *Collector) Err() error {
	if len(c.failures) == 0 {
		return nil
	}
	return NewAssertionError(c.failures...)
}

// IsUsage reports whether err is or wraps a *UsageError.
func IsUsage(err error) bool {
	var target *UsageError
	return errors.As(err, &target)
}

// IsAssertion reports whether err is or wraps an *AssertionError.
func IsAssertion(err error) bool {
	var target *AssertionError
	return errors.As(err, &target)
}

// IsUnsupportedEncoding reports whether err is or wraps an *UnsupportedEncodingError.
func IsUnsupportedEncoding(err error) bool {
	var target *UnsupportedEncodingError
	return errors.As(err, &target)
}
