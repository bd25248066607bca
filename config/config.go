// Package config loads the chat client settings from the environment and
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/aicanalytics/gptmenu/utils"
)

type Config struct {
	Provider     string         `env:"LLM_PROVIDER" envDefault:"openai-completions" validate:"required,oneof=openai-completions openai ollama mock"`
	Model        string         `env:"LLM_MODEL" envDefault:"GPT-3" validate:"required"`
	MaxTokens    int            `env:"LLM_MAX_TOKENS" envDefault:"60" validate:"min=1,max=4096"`
	Temperature  float64        `env:"LLM_TEMPERATURE" envDefault:"0.5" validate:"gte=0,lte=1"`
	Role         string         `env:"LLM_ROLE" envDefault:"user" validate:"oneof=user system assistant"`
	SystemPrompt string         `env:"LLM_SYSTEM_PROMPT" envDefault:"You are a helpful assistant."`
	Endpoint     string         `env:"LLM_ENDPOINT" validate:"omitempty,url"`
	Timeout      time.Duration  `env:"LLM_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	MaxRetries   int            `env:"LLM_MAX_RETRIES" envDefault:"2" validate:"gte=0,lte=10"`
	RetryDelay   time.Duration  `env:"LLM_RETRY_DELAY" envDefault:"2s" validate:"gte=0"`
	RateLimit    int            `env:"LLM_RATE_LIMIT" envDefault:"20" validate:"gte=0"`
	LogLevel     utils.LogLevel `env:"LLM_LOG_LEVEL" envDefault:"WARN"`
	ContextTurns int            `env:"CHAT_CONTEXT_TURNS" envDefault:"0" validate:"gte=0,lte=50"`
	ExportDir    string         `env:"CHAT_EXPORT_DIR" envDefault:"."`
	UseKeyring   bool           `env:"CHAT_USE_KEYRING" envDefault:"true"`
	APIKeys      map[string]string
	Logger       utils.Logger
}

var validate = validator.New()

// LoadConfig reads .env files (the default ".env" when none are given,
// missing files are skipped) and then the process environment. Variables
// already set in the environment win over the files. The result is not
// validated; callers apply their options first and then call Validate.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	cfg := &Config{
		APIKeys: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	loadAPIKeys(cfg)
	return cfg, nil
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && value != "" && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

// Validate checks the numeric ranges and enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Field(), fe.Tag()+paramSuffix(fe.Param()), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func paramSuffix(param string) string {
	if param == "" {
		return ""
	}
	return "=" + param
}

// CredentialName maps a provider to the key family it authenticates with.
// Both OpenAI wire shapes share one key.
func CredentialName(provider string) string {
	if strings.HasPrefix(provider, "openai") {
		return "openai"
	}
	return provider
}

// APIKey returns the key collected from *_API_KEY variables for the
// configured provider, or "".
func (c *Config) APIKey() string {
	return c.APIKeys[CredentialName(c.Provider)]
}

// EnvKeyName is the variable the credential for provider is read from.
func EnvKeyName(provider string) string {
	return strings.ToUpper(CredentialName(provider)) + "_API_KEY"
}

type ConfigOption func(*Config)

// NewConfig returns the same defaults LoadConfig applies to an empty
// environment.
func NewConfig() *Config {
	return &Config{
		Provider:     "openai-completions",
		Model:        "GPT-3",
		MaxTokens:    60,
		Temperature:  0.5,
		Role:         "user",
		SystemPrompt: "You are a helpful assistant.",
		Timeout:      30 * time.Second,
		MaxRetries:   2,
		RetryDelay:   2 * time.Second,
		RateLimit:    20,
		LogLevel:     utils.LogLevelWarn,
		ExportDir:    ".",
		UseKeyring:   true,
		APIKeys:      make(map[string]string),
	}
}

func SetProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func SetModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func SetMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		if maxTokens < 1 {
			maxTokens = 1
		}
		c.MaxTokens = maxTokens
	}
}

func SetTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

func SetRole(role string) ConfigOption {
	return func(c *Config) {
		c.Role = role
	}
}

func SetSystemPrompt(prompt string) ConfigOption {
	return func(c *Config) {
		c.SystemPrompt = prompt
	}
}

func SetEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func SetMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

func SetRetryDelay(retryDelay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = retryDelay
	}
}

// SetRateLimit caps requests per minute; 0 disables the limiter.
func SetRateLimit(perMinute int) ConfigOption {
	return func(c *Config) {
		c.RateLimit = perMinute
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func SetLogger(logger utils.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

func SetAPIKey(apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		c.APIKeys[CredentialName(c.Provider)] = apiKey
	}
}

func SetContextTurns(turns int) ConfigOption {
	return func(c *Config) {
		c.ContextTurns = turns
	}
}

func SetExportDir(dir string) ConfigOption {
	return func(c *Config) {
		c.ExportDir = dir
	}
}

func SetUseKeyring(use bool) ConfigOption {
	return func(c *Config) {
		c.UseKeyring = use
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}
