package gptmenu

import (
	"fmt"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/credential"
	"github.com/aicanalytics/gptmenu/history"
	"github.com/aicanalytics/gptmenu/llm"
	"github.com/aicanalytics/gptmenu/providers"
	"github.com/aicanalytics/gptmenu/session"
	"github.com/aicanalytics/gptmenu/settings"
	"github.com/aicanalytics/gptmenu/utils"
)

type (
	Session = session.Session
	Entry   = history.Entry
	Mode    = settings.Mode
)

const (
	ModeChat    = settings.ModeChat
	ModeCopilot = settings.ModeCopilot
)

// NewSession loads the configuration, applies opts and returns a session
// ready to Ask. It never prompts: a required key that is neither configured
// nor stored makes Ask fail with credential.ErrNoCredential.
func NewSession(opts ...ConfigOption) (*Session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	config.ApplyOptions(cfg, opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.NewLogger(cfg.LogLevel)
	}

	client, err := llm.NewLLM(cfg, cfg.Logger, providers.GetDefaultRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	var store credential.Store = credential.NewMemoryStore()
	if cfg.UseKeyring {
		store = credential.NewKeyringStore()
	}
	creds := &credential.Resolver{
		Provider: config.CredentialName(cfg.Provider),
		EnvKey:   config.EnvKeyName(cfg.Provider),
		Initial:  cfg.APIKey(),
		Required: providers.RequiresKey(cfg.Provider),
		Store:    store,
		Logger:   cfg.Logger,
	}
	return session.New(cfg, client, creds, nil)
}
