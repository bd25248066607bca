package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/utils"
)

// OpenAIProvider speaks /v1/chat/completions.
type OpenAIProvider struct {
	apiKey  string
	base    string
	options map[string]any
	logger  utils.Logger
}

func NewOpenAIProvider(apiKey, endpoint string) *OpenAIProvider {
	if endpoint == "" {
		endpoint = defaultOpenAIBase
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		base:    strings.TrimRight(endpoint, "/"),
		options: make(map[string]any),
		logger:  utils.NewNopLogger(),
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Endpoint() string { return p.base + "/chat/completions" }

func (p *OpenAIProvider) Headers() map[string]string { return headersWithKey(p.apiKey) }

func (p *OpenAIProvider) SetLogger(logger utils.Logger) { p.logger = logger }

func (p *OpenAIProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("max_tokens", cfg.MaxTokens)
	p.SetOption("temperature", cfg.Temperature)
}

func (p *OpenAIProvider) SetOption(key string, value any) {
	p.options[key] = value
	p.logger.Debug("Setting option", "provider", p.Name(), "key", key, "value", value)
}

func (p *OpenAIProvider) PrepareRequest(req *Request, options map[string]any) ([]byte, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	body := baseBody(p.options, options)
	body["model"] = req.Model
	body["messages"] = req.chatMessages()
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	return json.Marshal(body)
}

func (p *OpenAIProvider) ParseResponse(body []byte) (*Response, error) {
	var reply struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("decode chat completion: %w", err)
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("chat completion error: %s", reply.Error.Message)
	}
	if len(reply.Choices) == 0 {
		return nil, ErrNoChoices
	}
	return &Response{
		Text:             strings.TrimSpace(reply.Choices[0].Message.Content),
		PromptTokens:     reply.Usage.PromptTokens,
		CompletionTokens: reply.Usage.CompletionTokens,
	}, nil
}
