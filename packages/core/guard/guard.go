// Package guard enforces DSL call constraints: "call at most N times" and
// "use either group A or group B" within one builder scope.
package guard

import (
	"fmt"

	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
)

// CallCountChecker limits how many times an action may be performed.
type CallCountChecker struct {
	action   string
	maxCalls int
	calls    int
}

// NewCallCountChecker returns a checker that allows action exactly once.
func NewCallCountChecker(action string) *CallCountChecker {
	return NewCallCountCheckerMax(action, 1)
}

// NewCallCountCheckerMax returns a checker that allows action up to maxCalls times.
func NewCallCountCheckerMax(action string, maxCalls int) *CallCountChecker {
	return &CallCountChecker{action: action, maxCalls: maxCalls}
}

// Check records one call and fails once the limit is exceeded.
func (c *CallCountChecker) Check() error {
	c.calls++
	if c.calls > c.maxCalls {
		return failure.Usagef("%s can be called at most %d time(s)", c.action, c.maxCalls)
	}
	return nil
}

// Calls returns the number of recorded calls.
func (c *CallCountChecker) Calls() int {
	return c.calls
}

// MutualExclusivityChecker allows calls from a single group per scope.
type MutualExclusivityChecker[G comparable] struct {
	first G
	used  bool
}

// Check records a call tagged with group. The first group wins; any other group fails.
func (m *MutualExclusivityChecker[G]) Check(group G) error {
	if !m.used {
		m.first = group
		m.used = true
		return nil
	}
	if m.first != group {
		return failure.Usagef("%s cannot be combined with %s", describe(group), describe(m.first))
	}
	return nil
}

func describe[G comparable](group G) string {
	if s, ok := any(group).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", group)
}
