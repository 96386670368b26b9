package jsonext

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/apythia/packages/arrange"
	"github.com/abdul-hamid-achik/apythia/packages/assertions"
	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
	"github.com/abdul-hamid-achik/apythia/packages/extension"
	"github.com/abdul-hamid-achik/apythia/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONObjectBody_RoundTrip(t *testing.T) {
	resp, err := arrange.BuildResponse(nil, func(r *arrange.Response) {
		JSONObjectBody(r, func(o *Object) { o.Put("key", 1.0) })
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", resp.ContentType())
	decoded, err := DecodeBody[map[string]any](nil, resp.Body)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"key": 1.0}, decoded)
	assert.Equal(t, `{"key":1}`, resp.BodyString())
}

func TestJSONObjectBody_KeepsInsertionOrder(t *testing.T) {
	resp, err := arrange.BuildResponse(nil, func(r *arrange.Response) {
		JSONObjectBody(r, func(o *Object) {
			o.Put("z", 1).Put("a", "two").PutNull("m")
			o.PutArray("list", func(a *Array) {
				a.Add(1).AddNull().AddObject(func(o *Object) { o.Put("x", true) })
				a.AddArray(func(a *Array) { a.Add("n") })
			})
			o.PutObject("nested", func(o *Object) { o.Put("b", 2) })
			o.Put("z", 3)
		})
	})
	require.NoError(t, err)

	assert.Equal(t, `{"z":3,"a":"two","m":null,"list":[1,null,{"x":true},["n"]],"nested":{"b":2}}`, resp.BodyString())
}

func TestJSONBody_Options(t *testing.T) {
	tests := []struct {
		name        string
		opts        []Option
		contentType string
	}{
		{name: "default", contentType: "application/json"},
		{name: "without content type", opts: []Option{WithoutContentType()}},
		{name: "custom content type", opts: []Option{WithContentType("application/problem+json")}, contentType: "application/problem+json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := arrange.BuildResponse(nil, func(r *arrange.Response) {
				JSONBody(r, map[string]int{"a": 1}, tt.opts...)
			})
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, resp.BodyString())
			assert.Equal(t, tt.contentType, resp.ContentType())
		})
	}
}

func TestJSONArrayAndStringBody(t *testing.T) {
	resp, err := arrange.BuildResponse(nil, func(r *arrange.Response) {
		JSONArrayBody(r, func(a *Array) { a.Add(1).Add("b") })
	})
	require.NoError(t, err)
	assert.Equal(t, `[1,"b"]`, resp.BodyString())

	resp, err = arrange.BuildResponse(nil, func(r *arrange.Response) {
		JSONStringBody(r, `{"raw": true}`)
	})
	require.NoError(t, err)
	assert.Equal(t, `{"raw": true}`, resp.BodyString())

	_, err = arrange.BuildResponse(nil, func(r *arrange.Response) {
		JSONStringBody(r, `{"raw": `)
	})
	assert.True(t, failure.IsUsage(err))
}

func TestJSONBody_ConflictsWithContentTypeHeader(t *testing.T) {
	_, err := arrange.BuildResponse(nil, func(r *arrange.Response) {
		r.Headers(func(h *arrange.Headers) { h.Header("Content-Type", "text/plain") })
		JSONBody(r, 1)
	})

	require.Error(t, err)
	assert.Equal(t, "Content-Type header is already present", err.Error())
}

func TestConfig_FromRegistry(t *testing.T) {
	reg := extension.NewRegistry()
	require.NoError(t, reg.Add(Config{
		Marshal: func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", " ")
		},
	}))

	resp, err := arrange.BuildResponse(reg, func(r *arrange.Response) {
		JSONBody(r, map[string]int{"a": 1})
	})
	require.NoError(t, err)
	assert.Equal(t, "{\n \"a\": 1\n}", resp.BodyString())

	cfg := ConfigFrom(reg)
	assert.NotNil(t, cfg.Unmarshal)
}

func TestDecode(t *testing.T) {
	type user struct {
		Name string `json:"name"`
	}

	u, err := Decode[user](DefaultConfig(), []byte(`{"name":"John"}`))
	require.NoError(t, err)
	assert.Equal(t, "John", u.Name)

	_, err = Decode[user](Config{}, []byte(`{`))
	assert.ErrorContains(t, err, "failed to decode JSON body")
}

func assertJSON(t *testing.T, headers http.Headers, body string, fn func(*Expectations)) error {
	t.Helper()
	if headers == nil {
		headers = http.Headers{"Content-Type": {"application/json"}}
	}
	actual, err := http.NewActualRequest("POST", "http://localhost/users", headers, []byte(body))
	require.NoError(t, err)
	exp, err := assertions.BuildRequest(nil, func(r *assertions.Request) {
		r.Body(func(b *assertions.Body) { Body(b, fn) })
	})
	require.NoError(t, err)
	return assertions.NewEvaluator().Evaluate(context.Background(), exp, actual)
}

func TestBody_Assertions(t *testing.T) {
	const doc = `{"user": {"name": "John", "age": 30, "tags": ["a", "b"]}, "items": [{"id": 1}, {"id": 2}]}`

	tests := []struct {
		name   string
		fn     func(*Expectations)
		passed bool
	}{
		{
			name: "equals value",
			fn: func(e *Expectations) {
				e.Equals(map[string]any{
					"items": []map[string]int{{"id": 1}, {"id": 2}},
					"user":  map[string]any{"age": 30, "name": "John", "tags": []string{"a", "b"}},
				})
			},
			passed: true,
		},
		{name: "equals string ignores formatting", fn: func(e *Expectations) {
			e.EqualsString(`{"items":[{"id":1},{"id":2}],"user":{"tags":["a","b"],"age":30.0,"name":"John"}}`)
		}, passed: true},
		{name: "equals differs", fn: func(e *Expectations) { e.EqualsString(`{"user": {}}`) }},
		{name: "path", fn: func(e *Expectations) { e.Path("user.name", "John").Path("user.age", 30) }, passed: true},
		{name: "bracket path", fn: func(e *Expectations) { e.Path("items[1].id", 2) }, passed: true},
		{name: "path differs", fn: func(e *Expectations) { e.Path("user.name", "Jane") }},
		{name: "path absent", fn: func(e *Expectations) { e.Path("user.email", "x") }},
		{name: "path exists", fn: func(e *Expectations) { e.PathExists("user.tags") }, passed: true},
		{name: "path missing", fn: func(e *Expectations) { e.PathMissing("user.email") }, passed: true},
		{name: "path not missing", fn: func(e *Expectations) { e.PathMissing("user.name") }},
		{name: "path type", fn: func(e *Expectations) { e.PathType("user.tags", "array").PathType("user.age", "number") }, passed: true},
		{name: "path type differs", fn: func(e *Expectations) { e.PathType("user.name", "number") }},
		{
			name:   "schema",
			fn:     func(e *Expectations) { e.MatchesSchema(`{"type": "object", "required": ["user", "items"]}`) },
			passed: true,
		},
		{
			name: "schema violation",
			fn:   func(e *Expectations) { e.MatchesSchema(`{"type": "object", "required": ["missing"]}`) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertJSON(t, nil, doc, tt.fn)
			if tt.passed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, failure.IsAssertion(err), "unexpected error: %v", err)
		})
	}
}

func TestBody_FailureClues(t *testing.T) {
	err := assertJSON(t, nil, `{"a": 1}`, func(e *Expectations) {
		e.Path("a", 2).PathExists("b")
	})

	var assertionErr *failure.AssertionError
	require.ErrorAs(t, err, &assertionErr)
	failures := assertionErr.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "body > json > a", failures[0].Clue)
	assert.Equal(t, "expected 2, got 1", failures[0].Message)
	assert.Equal(t, "body > json > b", failures[1].Clue)
}

func TestBody_NotJSON(t *testing.T) {
	err := assertJSON(t, nil, `<html>`, func(e *Expectations) { e.PathExists("a") })

	require.Error(t, err)
	assert.True(t, failure.IsAssertion(err))
	assert.Contains(t, err.Error(), "expected a JSON body")
}

func TestBody_RejectsNonUTF8Charset(t *testing.T) {
	err := assertJSON(t, http.Headers{"Content-Type": {"application/json; charset=utf-16"}}, `{}`, nil)

	require.Error(t, err)
	assert.True(t, failure.IsUnsupportedEncoding(err))
}

func TestBody_UsageErrors(t *testing.T) {
	_, err := assertions.BuildRequest(nil, func(r *assertions.Request) {
		r.Body(func(b *assertions.Body) {
			Body(b, func(e *Expectations) { e.EqualsString("{") })
		})
	})
	require.Error(t, err)
	assert.True(t, failure.IsUsage(err))

	_, err = assertions.BuildRequest(nil, func(r *assertions.Request) {
		r.Body(func(b *assertions.Body) {
			Body(b, nil)
			b.Empty()
		})
	})
	require.Error(t, err)
	assert.Equal(t, "content type assertion can be called at most 1 time(s)", err.Error())
}

func TestBody_MatchesSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "array"}`), 0644))

	assert.NoError(t, assertJSON(t, nil, `[1, 2]`, func(e *Expectations) { e.MatchesSchemaFile(path) }))

	err := assertJSON(t, nil, `{}`, func(e *Expectations) { e.MatchesSchemaFile(path) })
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "schema"))
}

func TestConvertBracketNotation(t *testing.T) {
	tests := map[string]string{
		"[0].id":            "0.id",
		"items[0].tags[1]":  "items.0.tags.1",
		"user.name":         "user.name",
		"data[10].value[2]": "data.10.value.2",
	}
	for in, want := range tests {
		assert.Equal(t, want, convertBracketNotation(in), in)
	}
}
