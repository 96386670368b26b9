package assertions

import (
	"testing"

	"github.com/abdul-hamid-achik/apythia/packages/core/failure"
	"github.com/abdul-hamid-achik/apythia/packages/expected"
	"github.com/abdul-hamid-achik/apythia/packages/extension"
	"github.com/abdul-hamid-achik/apythia/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest_Empty(t *testing.T) {
	exp, err := BuildRequest(nil, func(r *Request) {})

	require.NoError(t, err)
	assert.True(t, exp.IsEmpty())
}

func TestBuildRequest_Full(t *testing.T) {
	exp, err := BuildRequest(nil, func(r *Request) {
		r.Method("post").
			URL(func(u *URL) {
				u.URL("http://localhost/a?x=1").Path("/a").PathSuffix("a")
				u.Query(func(q *Query) {
					q.Parameter("x", "1").ParameterInt("n", 7).ParameterWithoutValue("flag")
					q.Parameters("x", "2", "3")
					q.MissingParameters("gone").MissingParameters("gone", "other")
				})
			}).
			Headers(func(h *Headers) {
				h.Header("X-Id", "1").HeaderInt("x-id", 2).HeaderValues("Accept", "a", "b")
				h.ContentType("text/plain", http.P("charset", "utf-8"), http.P("format", "flowed"))
			}).
			Body(func(b *Body) { b.PlainText("hello") })
	})

	require.NoError(t, err)
	assert.Equal(t, "post", *exp.Method)
	assert.Equal(t, "/a", *exp.URL.Path)
	assert.Equal(t, "a", *exp.URL.PathSuffix)

	q := exp.URL.Query
	require.Len(t, q.Parameters, 3)
	assert.Equal(t, "x", q.Parameters[0].Name)
	require.Len(t, q.Parameters[0].Values, 3)
	assert.Equal(t, "3", *q.Parameters[0].Values[2])
	assert.Equal(t, "7", *q.Parameters[1].Values[0])
	assert.Nil(t, q.Parameters[2].Values[0])
	assert.Equal(t, []string{"gone", "other"}, q.MissingParameters)

	assert.Equal(t, []string{"1", "2"}, exp.Headers.Values("X-ID"))
	assert.Equal(t, []string{"text/plain; charset=utf-8; format=flowed"}, exp.Headers.Values("content-type"))
	assert.Equal(t, expected.PlainTextBody{Value: "hello"}, exp.Body)
}

func TestBuildRequest_UsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		dsl     func(*Request)
		wantErr string
	}{
		{
			name:    "method twice",
			dsl:     func(r *Request) { r.Method("GET").Method("POST") },
			wantErr: "method can be called at most 1 time(s)",
		},
		{
			name: "path twice",
			dsl: func(r *Request) {
				r.URL(func(u *URL) { u.Path("/a").Path("/b") })
			},
			wantErr: "path can be called at most 1 time(s)",
		},
		{
			name: "two body assertions",
			dsl: func(r *Request) {
				r.Body(func(b *Body) {
					b.Empty()
					b.PlainText("x")
				})
			},
			wantErr: "content type assertion can be called at most 1 time(s)",
		},
		{
			name: "same body assertion twice",
			dsl: func(r *Request) {
				r.Body(func(b *Body) {
					b.Bytes([]byte{1})
					b.Bytes([]byte{2})
				})
			},
			wantErr: "content type assertion can be called at most 1 time(s)",
		},
		{
			name: "noParameters after parameter",
			dsl: func(r *Request) {
				r.URL(func(u *URL) {
					u.Query(func(q *Query) { q.Parameter("a", "b").NoParameters() })
				})
			},
			wantErr: "noParameters cannot be combined with parameter assertions",
		},
		{
			name: "missingParameters after noParameters",
			dsl: func(r *Request) {
				r.URL(func(u *URL) {
					u.Query(func(q *Query) { q.NoParameters().MissingParameters("a") })
				})
			},
			wantErr: "parameter assertions cannot be combined with noParameters",
		},
		{
			name: "empty parameters",
			dsl: func(r *Request) {
				r.URL(func(u *URL) {
					u.Query(func(q *Query) { q.Parameters("a") })
				})
			},
			wantErr: `parameters for "a" must not be empty`,
		},
		{
			name: "empty header values",
			dsl: func(r *Request) {
				r.Headers(func(h *Headers) { h.HeaderValues("X-A") })
			},
			wantErr: `values for header "X-A" must not be empty`,
		},
		{
			name: "content type twice",
			dsl: func(r *Request) {
				r.Headers(func(h *Headers) {
					h.ContentType("text/plain")
					h.ContentType("text/html")
				})
			},
			wantErr: "contentType can be called at most 1 time(s)",
		},
		{
			name: "multipart without parts",
			dsl: func(r *Request) {
				r.Body(func(b *Body) { b.MultipartFormData(func(m *MultipartFormData) {}) })
			},
			wantErr: "multipart form data must have at least one part",
		},
		{
			name: "part body twice",
			dsl: func(r *Request) {
				r.Body(func(b *Body) {
					b.MultipartFormData(func(m *MultipartFormData) {
						m.Part("a", func(p *Part) {
							p.Body(func(b *Body) { b.Empty() })
							p.Body(func(b *Body) { b.Empty() })
						})
					})
				})
			},
			wantErr: "body can be called at most 1 time(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := BuildRequest(nil, tt.dsl)

			require.Error(t, err)
			assert.Nil(t, exp)
			assert.True(t, failure.IsUsage(err))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestBuildRequest_FirstErrorWins(t *testing.T) {
	r := NewRequest(nil)
	r.Method("GET").Method("PUT")
	r.Headers(func(h *Headers) { h.HeaderValues("X-A") })

	_, err := r.Build()

	require.Error(t, err)
	assert.Equal(t, "method can be called at most 1 time(s)", err.Error())
	assert.Equal(t, err, r.Err())
}

func TestBuildRequest_Multipart(t *testing.T) {
	exp, err := BuildRequest(nil, func(r *Request) {
		r.Body(func(b *Body) {
			b.PartialMultipartFormData(func(m *PartialMultipartFormData) {
				m.FilePart("file", "a.txt", func(p *Part) {
					p.Headers(func(h *Headers) { h.ContentType("text/plain") })
					p.Body(func(b *Body) { b.PlainText("content") })
				})
				m.Part("meta", nil)
				m.MissingParts("x", "y")
				m.MissingParts("x")
			})
		})
	})

	require.NoError(t, err)
	body, ok := exp.Body.(expected.PartialMultipartFormDataBody)
	require.True(t, ok)
	require.Len(t, body.Parts, 2)
	assert.Equal(t, "file", body.Parts[0].Name)
	assert.Equal(t, "a.txt", *body.Parts[0].Filename)
	assert.Equal(t, []string{"text/plain"}, body.Parts[0].Headers.Values("Content-Type"))
	assert.Equal(t, expected.PlainTextBody{Value: "content"}, body.Parts[0].Body)
	assert.Nil(t, body.Parts[1].Filename)
	assert.Nil(t, body.Parts[1].Body)
	assert.Equal(t, []string{"x", "y"}, body.MissingParts)
}

func TestBody_Extensions(t *testing.T) {
	reg := extension.NewRegistry()
	var seen *extension.Registry

	_, err := BuildRequest(reg, func(r *Request) {
		assert.Same(t, reg, r.Extensions())
		r.Body(func(b *Body) { seen = b.Extensions() })
	})

	require.NoError(t, err)
	assert.Same(t, reg, seen)
}
