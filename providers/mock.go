package providers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockReply is one scripted answer. A zero Status means 200; Body, when
// set, is sent verbatim instead of a completion built from Text.
type MockReply struct {
	Status int
	Text   string
	Body   string
}

// MockProvider uses the completions wire shape but answers from a queue
// through its own http.RoundTripper, so the full HTTP path in the llm
// package runs without a network.
type MockProvider struct {
	*CompletionsProvider

	mu          sync.Mutex
	replies     []MockReply
	fallback    string
	requiredKey string
	bodies      [][]byte
	keys        []string
}

func NewMockProvider(apiKey, _ string) *MockProvider {
	return &MockProvider{
		CompletionsProvider: NewCompletionsProvider(apiKey, "http://mock.invalid/v1"),
		fallback:            "This is a mock response",
	}
}

func (p *MockProvider) Name() string { return "mock" }

// SetAPIKey lets a test registry hand the same mock back after the llm
// client rebuilds its provider with a new key.
func (p *MockProvider) SetAPIKey(apiKey string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apiKey = apiKey
}

// Queue appends replies served in order; once empty the fallback text is
// returned.
func (p *MockProvider) Queue(replies ...MockReply) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, replies...)
}

func (p *MockProvider) QueueText(texts ...string) {
	for _, text := range texts {
		p.Queue(MockReply{Text: text})
	}
}

func (p *MockProvider) SetDefaultResponse(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fallback = text
}

// RequireKey makes every request whose bearer token differs fail with 401.
func (p *MockProvider) RequireKey(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requiredKey = key
}

// Bodies returns the request bodies received so far.
func (p *MockProvider) Bodies() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.bodies...)
}

// Keys returns the bearer tokens received so far, one per request.
func (p *MockProvider) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bodies)
}

func (p *MockProvider) Transport() http.RoundTripper {
	return mockTransport{p: p}
}

type mockTransport struct {
	p *MockProvider
}

func (t mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}
	key := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")

	status, payload := t.p.next(body, key)
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(payload)),
		Request:    req,
	}, nil
}

func (p *MockProvider) next(body []byte, key string) (int, []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bodies = append(p.bodies, body)
	p.keys = append(p.keys, key)

	if p.requiredKey != "" && key != p.requiredKey {
		return http.StatusUnauthorized, []byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}

	reply := MockReply{Text: p.fallback}
	if len(p.replies) > 0 {
		reply = p.replies[0]
		p.replies = p.replies[1:]
	}
	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}
	if reply.Body != "" {
		return reply.Status, []byte(reply.Body)
	}

	payload, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"text": reply.Text, "finish_reason": "stop"}},
	})
	return reply.Status, payload
}
