package providers

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, p *MockProvider, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, p.Endpoint(), bytes.NewBufferString(body))
	require.NoError(t, err)
	for k, v := range p.Headers() {
		req.Header.Set(k, v)
	}
	resp, err := p.Transport().RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestMockProviderServesQueueThenFallback(t *testing.T) {
	p := NewMockProvider("k", "")
	assert.Equal(t, "mock", p.Name())

	p.QueueText("first", "second")
	p.SetDefaultResponse("fallback")

	for _, want := range []string{"first", "second", "fallback"} {
		resp, data := roundTrip(t, p, `{"prompt":"x"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		parsed, err := p.ParseResponse(data)
		require.NoError(t, err)
		assert.Equal(t, want, parsed.Text)
	}

	assert.Equal(t, 3, p.Calls())
	assert.Equal(t, []string{"k", "k", "k"}, p.Keys())
	assert.JSONEq(t, `{"prompt":"x"}`, string(p.Bodies()[0]))
}

func TestMockProviderStatusAndRawBody(t *testing.T) {
	p := NewMockProvider("", "")
	p.Queue(MockReply{Status: http.StatusTooManyRequests, Body: `{"error":{"message":"slow down"}}`})

	resp, data := roundTrip(t, p, "{}")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "slow down", ErrorMessage(data))
}

func TestMockProviderRequireKey(t *testing.T) {
	p := NewMockProvider("wrong", "")
	p.RequireKey("right")

	resp, _ := roundTrip(t, p, "{}")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	p.SetAPIKey("right")
	resp, _ = roundTrip(t, p, "{}")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"wrong", "right"}, p.Keys())
}
