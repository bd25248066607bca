package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/utils"
)

const defaultOpenAIBase = "https://api.openai.com/v1"

// CompletionsProvider speaks the legacy /v1/completions shape: a single
// prompt string in, choices[0].text out.
type CompletionsProvider struct {
	apiKey  string
	base    string
	options map[string]any
	logger  utils.Logger
}

func NewCompletionsProvider(apiKey, endpoint string) *CompletionsProvider {
	if endpoint == "" {
		endpoint = defaultOpenAIBase
	}
	return &CompletionsProvider{
		apiKey:  apiKey,
		base:    strings.TrimRight(endpoint, "/"),
		options: make(map[string]any),
		logger:  utils.NewNopLogger(),
	}
}

func (p *CompletionsProvider) Name() string { return "openai-completions" }

func (p *CompletionsProvider) Endpoint() string { return p.base + "/completions" }

func (p *CompletionsProvider) Headers() map[string]string { return headersWithKey(p.apiKey) }

func (p *CompletionsProvider) SetLogger(logger utils.Logger) { p.logger = logger }

func (p *CompletionsProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("max_tokens", cfg.MaxTokens)
	p.SetOption("temperature", cfg.Temperature)
}

func (p *CompletionsProvider) SetOption(key string, value any) {
	p.options[key] = value
	p.logger.Debug("Setting option", "provider", p.Name(), "key", key, "value", value)
}

func (p *CompletionsProvider) PrepareRequest(req *Request, options map[string]any) ([]byte, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	body := baseBody(p.options, options)
	body["model"] = req.Model
	body["prompt"] = req.promptText()
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	return json.Marshal(body)
}

type completionsReply struct {
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error"`
}

func (p *CompletionsProvider) ParseResponse(body []byte) (*Response, error) {
	var reply completionsReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("completion error: %s", reply.Error.Message)
	}
	if len(reply.Choices) == 0 {
		return nil, ErrNoChoices
	}
	return &Response{
		Text:             strings.TrimSpace(reply.Choices[0].Text),
		PromptTokens:     reply.Usage.PromptTokens,
		CompletionTokens: reply.Usage.CompletionTokens,
	}, nil
}
