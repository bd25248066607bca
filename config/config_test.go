package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/utils"
)

// unsetEnv removes key for the duration of the test. godotenv never
// overrides a variable that exists, even when empty, so t.Setenv is not
// enough for the .env tests.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		prev, had := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() {
			if had {
				os.Setenv(key, prev)
			} else {
				os.Unsetenv(key)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	unsetEnv(t, "LLM_PROVIDER", "LLM_MODEL", "LLM_MAX_TOKENS", "LLM_TEMPERATURE",
		"LLM_ROLE", "LLM_TIMEOUT", "LLM_MAX_RETRIES", "LLM_LOG_LEVEL", "CHAT_EXPORT_DIR")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "openai-completions", cfg.Provider)
	assert.Equal(t, "GPT-3", cfg.Model)
	assert.Equal(t, 60, cfg.MaxTokens)
	assert.InDelta(t, 0.5, cfg.Temperature, 1e-9)
	assert.Equal(t, "user", cfg.Role)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, utils.LogLevelWarn, cfg.LogLevel)
	assert.Equal(t, ".", cfg.ExportDir)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("LLM_MODEL", "GPT-4")
	t.Setenv("LLM_MAX_TOKENS", "120")
	t.Setenv("LLM_TEMPERATURE", "0.9")
	t.Setenv("LLM_LOG_LEVEL", "debug")
	t.Setenv("LLM_RETRY_DELAY", "250ms")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "GPT-4", cfg.Model)
	assert.Equal(t, 120, cfg.MaxTokens)
	assert.InDelta(t, 0.9, cfg.Temperature, 1e-9)
	assert.Equal(t, utils.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, "sk-test", cfg.APIKeys["openai"])
	assert.Equal(t, "sk-test", cfg.APIKey())
}

func TestLoadConfigRejectsOutOfRange(t *testing.T) {
	tests := map[string]string{
		"LLM_TEMPERATURE": "1.5",
		"LLM_MAX_TOKENS":  "0",
		"LLM_ROLE":        "narrator",
		"LLM_ENDPOINT":    "not a url",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
			require.NoError(t, err)
			assert.ErrorContains(t, cfg.Validate(), "invalid configuration")
		})
	}
}

func TestOptionsOverrideInvalidEnvironment(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "nonexistent")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	config.ApplyOptions(cfg, config.SetProvider("ollama"))
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "ollama", cfg.Provider)
}

func TestLoadConfigRejectsUnparsableValue(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "many")
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "parse environment")
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	unsetEnv(t, "LLM_MODEL", "GPTMENU_DOTENV_API_KEY")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "LLM_MODEL=GPT-3.5\nGPTMENU_DOTENV_API_KEY=from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "GPT-3.5", cfg.Model)
	assert.Equal(t, "from-file", cfg.APIKeys["gptmenu_dotenv"])
}

func TestEnvironmentWinsOverEnvFile(t *testing.T) {
	t.Setenv("LLM_MODEL", "GPT-2")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LLM_MODEL=GPT-4\n"), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "GPT-2", cfg.Model)
}

func TestCredentialName(t *testing.T) {
	assert.Equal(t, "openai", config.CredentialName("openai-completions"))
	assert.Equal(t, "openai", config.CredentialName("openai"))
	assert.Equal(t, "ollama", config.CredentialName("ollama"))
	assert.Equal(t, "OPENAI_API_KEY", config.EnvKeyName("openai-completions"))
}

func TestApplyOptions(t *testing.T) {
	cfg := config.NewConfig()
	logger := utils.NewNopLogger()

	config.ApplyOptions(cfg,
		config.SetProvider("ollama"),
		config.SetModel("GPT-1"),
		config.SetMaxTokens(0),
		config.SetTemperature(0.1),
		config.SetRole("system"),
		config.SetMaxRetries(5),
		config.SetRetryDelay(time.Second),
		config.SetAPIKey("k"),
		config.SetLogger(logger),
		config.SetExportDir("/tmp/out"),
		config.SetContextTurns(3),
		config.SetUseKeyring(false),
	)

	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "GPT-1", cfg.Model)
	assert.Equal(t, 1, cfg.MaxTokens, "max tokens is clamped to at least one")
	assert.InDelta(t, 0.1, cfg.Temperature, 1e-9)
	assert.Equal(t, "system", cfg.Role)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, "k", cfg.APIKeys["ollama"])
	assert.Same(t, logger, cfg.Logger)
	assert.Equal(t, "/tmp/out", cfg.ExportDir)
	assert.Equal(t, 3, cfg.ContextTurns)
	assert.False(t, cfg.UseKeyring)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfigIsValid(t *testing.T) {
	assert.NoError(t, config.NewConfig().Validate())
}

func TestLoadAnomalyConfig(t *testing.T) {
	t.Setenv("AD_SEED", "42")
	t.Setenv("AD_BINS", "7")

	cfg, err := config.LoadAnomalyConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 7, cfg.Bins)
	assert.Equal(t, 2020, cfg.StartDate.Year())
	assert.Equal(t, time.January, cfg.StartDate.Month())

	t.Setenv("AD_BINS", "1")
	_, err = config.LoadAnomalyConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
