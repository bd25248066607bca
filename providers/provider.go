// Package providers translates completion requests into vendor wire shapes
// and unpacks the replies.
package providers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/utils"
)

// Provider knows one vendor's endpoint, headers and body layout. It does not
// perform I/O; the llm package posts what PrepareRequest builds.
type Provider interface {
	Name() string
	Endpoint() string
	Headers() map[string]string
	SetDefaultOptions(cfg *config.Config)
	SetOption(key string, value any)
	SetLogger(logger utils.Logger)

	PrepareRequest(req *Request, options map[string]any) ([]byte, error)
	ParseResponse(body []byte) (*Response, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries one exchange. Completion-style providers send Prompt and
// chat-style providers send Messages; each falls back to the other field
// when its own is empty.
type Request struct {
	Model       string
	Prompt      string
	Messages    []Message
	MaxTokens   int
	Temperature *float64
}

type Response struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

var (
	ErrEmptyPrompt = errors.New("request has neither prompt nor messages")
	ErrNoModel     = errors.New("request has no model")
	ErrNoChoices   = errors.New("response contained no choices")
)

func Float(v float64) *float64 { return &v }

func (r *Request) validate() error {
	if r == nil || (strings.TrimSpace(r.Prompt) == "" && len(r.Messages) == 0) {
		return ErrEmptyPrompt
	}
	if r.Model == "" {
		return ErrNoModel
	}
	return nil
}

// promptText flattens messages into "role: content" lines, the format the
// completion endpoint was always fed.
func (r *Request) promptText() string {
	if r.Prompt != "" {
		return r.Prompt
	}
	lines := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func (r *Request) chatMessages() []Message {
	if len(r.Messages) > 0 {
		return r.Messages
	}
	return []Message{{Role: "user", Content: r.Prompt}}
}

// baseBody merges provider defaults, per-call options and the request's own
// limits, in increasing precedence.
func baseBody(defaults, options map[string]any) map[string]any {
	body := make(map[string]any, len(defaults)+len(options)+4)
	for k, v := range defaults {
		body[k] = v
	}
	for k, v := range options {
		body[k] = v
	}
	return body
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// ErrorMessage extracts a vendor error message from a failed response body.
// Both {"error": {"message": ...}} and {"error": "..."} are understood.
func ErrorMessage(body []byte) string {
	var nested struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error != nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
		return flat.Error
	}
	return strings.TrimSpace(string(body))
}

func headersWithKey(apiKey string) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	return headers
}
