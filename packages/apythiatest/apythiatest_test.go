package apythiatest

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/apythia/packages/arrange"
	"github.com/abdul-hamid-achik/apythia/packages/assertions"
	"github.com/abdul-hamid-achik/apythia/packages/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTB records fatal messages instead of stopping the test.
type recordingTB struct {
	testing.TB
	fatals []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.fatals = append(r.fatals, fmt.Sprintf(format, args...))
}

func TestNewTransport(t *testing.T) {
	h, client := NewTransport(t)
	h.ArrangeNextResponse(func(r *arrange.Response) {
		r.StatusCode(201)
		r.PlainTextBody("ok")
	})

	resp, err := client.Post("http://api.test/users", "text/plain", strings.NewReader("John"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	h.AssertNextRequest(func(r *assertions.Request) {
		r.Method("POST")
		r.URL(func(u *assertions.URL) { u.Path("/users") })
		r.Body(func(b *assertions.Body) { b.PlainText("John") })
	})
	assert.NotNil(t, h.Apythia())
}

func TestNewServer(t *testing.T) {
	h, srv := NewServer(t, []mock.Option{mock.WithAddr("127.0.0.1:0")})
	h.ArrangeNext200Response()
	h.MockNextResponse(func(r *arrange.Response) { r.StatusCode(204) })

	for _, want := range []int{200, 204} {
		resp, err := srv.Client().Get(srv.URL() + "/ping")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode)
	}

	for range 2 {
		h.AssertNextRequest(func(r *assertions.Request) {
			r.Method("GET").URL(func(u *assertions.URL) { u.Path("/ping") })
		})
	}
}

func TestHelper_FailuresAreFatal(t *testing.T) {
	rec := &recordingTB{TB: t}
	h, client := NewTransport(rec)
	h.ArrangeNext200Response()

	resp, err := client.Get("http://api.test/items")
	require.NoError(t, err)
	resp.Body.Close()

	h.AssertNextRequest(func(r *assertions.Request) { r.Method("PUT") })
	h.ArrangeNextResponse(func(r *arrange.Response) { r.StatusCode(42) })

	require.Len(t, rec.fatals, 2)
	assert.Contains(t, rec.fatals[0], "assert next request")
	assert.Contains(t, rec.fatals[0], `expected "PUT", got "GET"`)
	assert.Contains(t, rec.fatals[1], "invalid status code 42")
}
