package http

import (
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureRequest_ClientSide(t *testing.T) {
	req, err := nethttp.NewRequest("POST", "https://example.com/api/items?x=1", strings.NewReader("payload"))
	require.NoError(t, err)
	req.Header.Set("X-Token", "secret")

	actual, err := CaptureRequest(req)

	require.NoError(t, err)
	assert.NotEmpty(t, actual.ID)
	assert.Equal(t, "POST", actual.Method)
	assert.Equal(t, "https://example.com/api/items?x=1", actual.URL.String())
	assert.Equal(t, "payload", actual.BodyString())
	assert.Equal(t, "secret", actual.Headers.Get("x-token"))
	assert.Equal(t, "POST https://example.com/api/items?x=1", actual.String())

	// the body stays readable for the next handler
	rest, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(rest))
}

func TestCaptureRequest_ServerSide(t *testing.T) {
	req := httptest.NewRequest("GET", "/path?q=a", nil)
	req.Body = nil

	actual, err := CaptureRequest(req)

	require.NoError(t, err)
	assert.Equal(t, "http://example.com/path?q=a", actual.URL.String())
	assert.Equal(t, "example.com", actual.Headers.Get("Host"))
	assert.Empty(t, actual.Body)
	assert.NotNil(t, actual.Body)
}

func TestNewActualRequest(t *testing.T) {
	actual, err := NewActualRequest("GET", "http://localhost/a", nil, nil)

	require.NoError(t, err)
	assert.NotNil(t, actual.Headers)
	assert.NotNil(t, actual.Body)
	assert.Equal(t, "/a", actual.URL.Path)

	_, err = NewActualRequest("GET", "http://[::1", nil, nil)
	assert.Error(t, err)
}
