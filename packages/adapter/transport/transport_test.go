package transport

import (
	"context"
	"io"
	nethttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/apythia/packages/adapter"
	"github.com/abdul-hamid-achik/apythia/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_RoundTrip(t *testing.T) {
	tr := New()
	ctx := context.Background()

	resp := http.NewResponse()
	resp.StatusCode = 202
	resp.Headers.Add("X-Request-Id", "abc")
	resp.Body = []byte("accepted")
	require.NoError(t, tr.ArrangeNextResponse(ctx, resp))

	got, err := tr.Client().Post("http://api.test/jobs?x=1", "text/plain", strings.NewReader("payload"))
	require.NoError(t, err)
	defer got.Body.Close()

	body, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	assert.Equal(t, 202, got.StatusCode)
	assert.Equal(t, "abc", got.Header.Get("X-Request-Id"))
	assert.Equal(t, "accepted", string(body))

	actual, err := tr.NextActualRequest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "POST", actual.Method)
	assert.Equal(t, "http://api.test/jobs?x=1", actual.URL.String())
	assert.Equal(t, "payload", actual.BodyString())
	assert.Equal(t, "text/plain", actual.Headers.Get("content-type"))
}

func TestTransport_HeaderNamesAreCaseInsensitive(t *testing.T) {
	tr := New()

	resp := http.NewResponse()
	resp.Headers.Add("cOnTeNt-TyPe", "application/json")
	resp.Headers.Add("content-length", "2")
	resp.Body = []byte("{}")
	require.NoError(t, tr.ArrangeNextResponse(context.Background(), resp))

	got, err := tr.Client().Get("http://api.test/")
	require.NoError(t, err)
	defer got.Body.Close()

	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, []string{"2"}, got.Header.Values("Content-Length"))
}

func TestTransport_NoResponseArranged(t *testing.T) {
	tr := New()

	_, err := tr.Client().Get("http://api.test/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrNoResponseArranged)

	actual, err := tr.NextActualRequest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/missing", actual.URL.Path)
}

func TestTransport_ResponsesAreFIFO(t *testing.T) {
	tr := New()
	ctx := context.Background()

	for _, code := range []int{201, 404} {
		resp := http.NewResponse()
		resp.StatusCode = code
		require.NoError(t, tr.ArrangeNextResponse(ctx, resp))
	}

	client := tr.Client()
	for _, want := range []int{201, 404} {
		resp, err := client.Get("http://api.test/")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode)
	}
}

func TestTransport_WaitTimeout(t *testing.T) {
	tr := New(WithWaitTimeout(10 * time.Millisecond))

	_, err := tr.NextActualRequest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no request received within")
}

func TestTransport_LifecycleClearsQueues(t *testing.T) {
	tr := New(WithLogger(nil))
	ctx := context.Background()

	require.NoError(t, tr.ArrangeNextResponse(ctx, http.NewResponse()))
	require.NoError(t, tr.BeforeEachTest(ctx))
	assert.Equal(t, 0, tr.Responses.Len())

	_, err := tr.Client().Get("http://api.test/")
	require.Error(t, err)
	require.NoError(t, tr.AfterEachTest(ctx))
	assert.Equal(t, 0, tr.Requests.Len())
}

func TestTransport_CanceledRequest(t *testing.T) {
	tr := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, "http://api.test/", nil)
	require.NoError(t, err)
	_, err = tr.RoundTrip(req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, tr.Requests.Len())
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestTransport_CanceledRequestClosesBody(t *testing.T) {
	tr := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := &trackingBody{Reader: strings.NewReader("payload")}
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, "http://api.test/", body)
	require.NoError(t, err)

	_, err = tr.RoundTrip(req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, body.closed)
}
