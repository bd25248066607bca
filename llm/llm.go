// Package llm forwards completion requests to the configured provider over
// HTTP, with rate limiting, retries and typed errors.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/providers"
	"github.com/aicanalytics/gptmenu/utils"
)

// LLM is the remote call the session depends on.
type LLM interface {
	Generate(ctx context.Context, req *providers.Request) (*providers.Response, error)
	SetAPIKey(apiKey string) error
	ProviderName() string
}

var _ LLM = (*LLMImpl)(nil)

const maxRetryWait = 30 * time.Second

type LLMImpl struct {
	mu         sync.RWMutex
	Provider   providers.Provider
	client     *http.Client
	limiter    *rate.Limiter
	logger     utils.Logger
	config     *config.Config
	registry   *providers.ProviderRegistry
	MaxRetries int
	RetryDelay time.Duration
}

// transporter is implemented by providers that answer in-process.
type transporter interface {
	Transport() http.RoundTripper
}

func NewLLM(cfg *config.Config, logger utils.Logger, registry *providers.ProviderRegistry) (LLM, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	if registry == nil {
		registry = providers.GetDefaultRegistry()
	}

	l := &LLMImpl{
		logger:     logger,
		config:     cfg,
		registry:   registry,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}
	if cfg.RateLimit > 0 {
		l.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimit)), cfg.RateLimit)
	}
	if err := l.install(cfg.APIKey()); err != nil {
		return nil, err
	}
	return l, nil
}

// install builds the provider and its HTTP client for apiKey.
func (l *LLMImpl) install(apiKey string) error {
	provider, err := l.registry.Get(l.config.Provider, apiKey, l.config.Endpoint)
	if err != nil {
		return NewLLMError(ErrorTypeProvider, "failed to create provider", err)
	}
	provider.SetLogger(l.logger)
	provider.SetDefaultOptions(l.config)

	client := &http.Client{Timeout: l.config.Timeout}
	if t, ok := provider.(transporter); ok {
		client.Transport = t.Transport()
	}

	l.mu.Lock()
	l.Provider = provider
	l.client = client
	l.mu.Unlock()
	return nil
}

// SetAPIKey rebuilds the provider so later calls carry the new credential.
func (l *LLMImpl) SetAPIKey(apiKey string) error {
	config.ApplyOptions(l.config, config.SetAPIKey(apiKey))
	if err := l.install(apiKey); err != nil {
		return err
	}
	l.logger.Info("Credential replaced", "provider", l.config.Provider)
	return nil
}

func (l *LLMImpl) ProviderName() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.Provider.Name()
}

func (l *LLMImpl) Generate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, NewLLMError(ErrorTypeRateLimit, "rate limiter wait aborted", err)
		}
	}

	strategy := &DefaultRetryStrategy{
		MaxRetries:  l.MaxRetries,
		InitialWait: l.RetryDelay,
		MaxWait:     maxRetryWait,
	}

	for attempt := 1; ; attempt++ {
		l.logger.Debug("Generating text", "provider", l.ProviderName(), "model", req.Model, "attempt", attempt)

		resp, err := l.attemptGenerate(ctx, req)
		if err == nil {
			return resp, nil
		}
		l.logger.Warn("Generation attempt failed", "error", err, "attempt", attempt)

		if !strategy.ShouldRetry(err) {
			if attempt > 1 {
				return nil, fmt.Errorf("failed to generate after %d attempts: %w", attempt, err)
			}
			return nil, err
		}

		delay := strategy.NextDelay()
		l.logger.Debug("Retrying", "delay", delay)
		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func wait(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *LLMImpl) attemptGenerate(ctx context.Context, request *providers.Request) (*providers.Response, error) {
	l.mu.RLock()
	provider, client := l.Provider, l.client
	l.mu.RUnlock()

	reqBody, err := provider.PrepareRequest(request, nil)
	if err != nil {
		return nil, NewLLMError(ErrorTypeInvalidInput, "failed to prepare request", err)
	}
	l.logger.Debug("Request body", "provider", provider.Name(), "body", string(reqBody))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.Endpoint(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, NewLLMError(ErrorTypeRequest, "failed to create request", err)
	}
	for k, v := range provider.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, NewLLMError(ErrorTypeRequest, "failed to send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewLLMError(ErrorTypeResponse, "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := providers.ErrorMessage(body)
		l.logger.Error("API error", "provider", provider.Name(), "status", resp.StatusCode, "message", message)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, newStatusError(ErrorTypeAuthentication, resp.StatusCode, message)
		case http.StatusTooManyRequests:
			return nil, newStatusError(ErrorTypeRateLimit, resp.StatusCode, message)
		default:
			return nil, newStatusError(ErrorTypeAPI, resp.StatusCode, message)
		}
	}

	result, err := provider.ParseResponse(body)
	if err != nil {
		return nil, NewLLMError(ErrorTypeResponse, "failed to parse response", err)
	}

	l.logger.Debug("Text generated successfully", "chars", len(result.Text))
	return result, nil
}
