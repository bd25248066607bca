package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/utils"
)

const defaultOllamaBase = "http://localhost:11434"

// OllamaProvider talks to a local Ollama server through /api/chat with
// streaming turned off. No credential is sent.
type OllamaProvider struct {
	base    string
	options map[string]any
	logger  utils.Logger
}

func NewOllamaProvider(_ string, endpoint string) *OllamaProvider {
	if endpoint == "" {
		endpoint = defaultOllamaBase
	}
	return &OllamaProvider{
		base:    strings.TrimRight(endpoint, "/"),
		options: make(map[string]any),
		logger:  utils.NewNopLogger(),
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Endpoint() string { return p.base + "/api/chat" }

func (p *OllamaProvider) Headers() map[string]string { return headersWithKey("") }

func (p *OllamaProvider) SetLogger(logger utils.Logger) { p.logger = logger }

// SetDefaultOptions maps the generic limits onto Ollama's option names.
func (p *OllamaProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("num_predict", cfg.MaxTokens)
	p.SetOption("temperature", cfg.Temperature)
}

func (p *OllamaProvider) SetOption(key string, value any) {
	p.options[key] = value
	p.logger.Debug("Setting option", "provider", p.Name(), "key", key, "value", value)
}

func (p *OllamaProvider) PrepareRequest(req *Request, options map[string]any) ([]byte, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	opts := baseBody(p.options, options)
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	if req.Temperature != nil {
		opts["temperature"] = *req.Temperature
	}

	return json.Marshal(map[string]any{
		"model":    req.Model,
		"messages": req.chatMessages(),
		"stream":   false,
		"options":  opts,
	})
}

func (p *OllamaProvider) ParseResponse(body []byte) (*Response, error) {
	var reply struct {
		Message         Message `json:"message"`
		Done            bool    `json:"done"`
		PromptEvalCount int     `json:"prompt_eval_count"`
		EvalCount       int     `json:"eval_count"`
		Error           string  `json:"error"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("decode ollama reply: %w", err)
	}
	if reply.Error != "" {
		return nil, errors.New(reply.Error)
	}
	if reply.Message.Content == "" && !reply.Done {
		return nil, ErrNoChoices
	}
	return &Response{
		Text:             strings.TrimSpace(reply.Message.Content),
		PromptTokens:     reply.PromptEvalCount,
		CompletionTokens: reply.EvalCount,
	}, nil
}
