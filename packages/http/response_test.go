package http

import (
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponse_Defaults(t *testing.T) {
	resp := NewResponse()

	assert.Equal(t, 200, resp.StatusCode)
	assert.NotNil(t, resp.Headers)
	assert.Empty(t, resp.Headers)
	assert.NotNil(t, resp.Body)
	assert.Empty(t, resp.Body)
}

func TestResponse_IsSuccess(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   bool
	}{
		{200, true},
		{201, true},
		{204, true},
		{299, true},
		{300, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.statusCode}
		assert.Equal(t, tt.expected, resp.IsSuccess(), "StatusCode: %d", tt.statusCode)
	}
}

func TestResponse_IsJSON(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"text/html", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		resp := &Response{Headers: Headers{"content-type": {tt.contentType}}}
		assert.Equal(t, tt.expected, resp.IsJSON(), "Content-Type: %s", tt.contentType)
	}
}

func TestResponse_ToNetHTTP(t *testing.T) {
	resp := &Response{StatusCode: 201, Headers: Headers{"X-Id": {"7"}}, Body: []byte("created")}
	req := httptest.NewRequest("POST", "/items", nil)

	converted := resp.ToNetHTTP(req)

	assert.Equal(t, 201, converted.StatusCode)
	assert.Equal(t, "201 Created", converted.Status)
	assert.Equal(t, "7", converted.Header.Get("X-Id"))
	assert.Equal(t, "7", converted.Header.Get("Content-Length"))
	assert.Same(t, req, converted.Request)
	body, err := io.ReadAll(converted.Body)
	require.NoError(t, err)
	assert.Equal(t, "created", string(body))
}

func TestResponse_ToNetHTTP_CanonicalizesHeaderNames(t *testing.T) {
	resp := &Response{
		StatusCode: 200,
		Headers:    Headers{"cOnTeNt-TyPe": {"application/json"}, "content-length": {"2"}},
		Body:       []byte("{}"),
	}

	converted := resp.ToNetHTTP(httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "application/json", converted.Header.Get("Content-Type"))
	assert.Equal(t, []string{"2"}, converted.Header.Values("Content-Length"))
	assert.NotContains(t, converted.Header, "cOnTeNt-TyPe")
}

func TestResponse_Write(t *testing.T) {
	resp := &Response{StatusCode: nethttp.StatusTeapot, Headers: Headers{"X-A": {"1", "2"}}, Body: []byte("tea")}
	rec := httptest.NewRecorder()

	require.NoError(t, resp.Write(rec))

	assert.Equal(t, 418, rec.Code)
	assert.Equal(t, []string{"1", "2"}, rec.Header().Values("X-A"))
	assert.Equal(t, "tea", rec.Body.String())
}
