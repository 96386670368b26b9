package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_WithClue(t *testing.T) {
	var c Collector

	c.WithClue("body", func() {
		c.WithClue(`part "file"`, func() {
			c.Fail("a", "b", "expected %q, got %q", "a", "b")
		})
		c.Fail(nil, nil, "body failure")
	})
	c.Fail(nil, nil, "top level")

	failures := c.Failures()
	require.Len(t, failures, 3)
	assert.Equal(t, `body > part "file"`, failures[0].Clue)
	assert.Equal(t, "a", failures[0].Expected)
	assert.Equal(t, "b", failures[0].Actual)
	assert.Equal(t, "body", failures[1].Clue)
	assert.Equal(t, "", failures[2].Clue)
	assert.Equal(t, "top level", failures[2].Error())
}

func TestCollector_Merge(t *testing.T) {
	var inner Collector
	inner.WithClue("headers", func() {
		inner.Fail(nil, nil, "missing")
	})
	inner.Fail(nil, nil, "no clue")

	var outer Collector
	outer.WithClue("body", func() {
		outer.Merge(inner.Failures())
	})

	failures := outer.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "body > headers", failures[0].Clue)
	assert.Equal(t, "body", failures[1].Clue)
}

func TestCollector_Err(t *testing.T) {
	var c Collector
	assert.NoError(t, c.Err())

	c.WithClue("method", func() {
		c.Fail("POST", "GET", `expected "POST" but was "GET"`)
	})
	err := c.Err()
	require.Error(t, err)
	assert.True(t, IsAssertion(err))
	assert.False(t, IsUsage(err))
	assert.Equal(t, `assertion failed: method: expected "POST" but was "GET"`, err.Error())
}

func TestAssertionError_MultipleFailures(t *testing.T) {
	err := NewAssertionError(
		&Failure{Clue: "method", Message: "one"},
		&Failure{Clue: "url", Message: "two"},
	)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "2 assertions failed")
	assert.Contains(t, err.Error(), "  * method: one")
	assert.Contains(t, err.Error(), "  * url: two")
	assert.Len(t, err.Failures(), 2)
}

func TestNewAssertionError_Empty(t *testing.T) {
	assert.Nil(t, NewAssertionError())
}

func TestErrorClassification(t *testing.T) {
	usage := fmt.Errorf("wrapped: %w", Usagef("%s can be called at most %d time(s)", "method", 1))
	encoding := fmt.Errorf("wrapped: %w", &UnsupportedEncodingError{Charset: "utf-16"})

	assert.True(t, IsUsage(usage))
	assert.False(t, IsAssertion(usage))
	assert.True(t, IsUnsupportedEncoding(encoding))
	assert.False(t, IsUsage(encoding))
	assert.False(t, IsUsage(errors.New("plain")))
	assert.Contains(t, encoding.Error(), `"utf-16"`)
}
