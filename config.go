// Package gptmenu is the library face of the chat console: configuration,
// sessions and the history types, without the interactive menus.
// This file re-exports configuration types and functions from the config
// package.
package gptmenu

import (
	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/utils"
)

type (
	// Config holds provider selection, generation defaults and runtime
	// behaviour. See config.Config for the environment variables.
	//
	// Example usage:
	//   cfg := NewConfig()
	//   ApplyOptions(cfg, SetProvider("openai"), SetModel("GPT-4"))
	Config = config.Config

	// ConfigOption modifies a Config in place.
	ConfigOption = config.ConfigOption

	LogLevel = utils.LogLevel
)

var (
	// LoadConfig reads .env files and the environment, collecting every
	// *_API_KEY variable as a credential.
	LoadConfig = config.LoadConfig

	ApplyOptions = config.ApplyOptions
	NewConfig    = config.NewConfig

	// Provider and model
	SetProvider = config.SetProvider // openai-completions, openai, ollama or mock
	SetModel    = config.SetModel    // model label or 1-based table position
	SetEndpoint = config.SetEndpoint // overrides the provider's base URL
	SetAPIKey   = config.SetAPIKey   // key for the current provider's credential family

	// Generation defaults
	SetTemperature  = config.SetTemperature
	SetMaxTokens    = config.SetMaxTokens
	SetRole         = config.SetRole
	SetSystemPrompt = config.SetSystemPrompt
	SetContextTurns = config.SetContextTurns // prior exchanges replayed with each query

	// Runtime
	SetTimeout    = config.SetTimeout
	SetMaxRetries = config.SetMaxRetries
	SetRetryDelay = config.SetRetryDelay
	SetRateLimit  = config.SetRateLimit // requests per minute, 0 disables
	SetLogLevel   = config.SetLogLevel
	SetLogger     = config.SetLogger
	SetExportDir  = config.SetExportDir
	SetUseKeyring = config.SetUseKeyring
)

const (
	LogLevelOff   = utils.LogLevelOff
	LogLevelError = utils.LogLevelError
	LogLevelWarn  = utils.LogLevelWarn
	LogLevelInfo  = utils.LogLevelInfo
	LogLevelDebug = utils.LogLevelDebug
)
