package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{" error ", LogLevelError, false},
		{"off", LogLevelOff, false},
		{"loud", LogLevelOff, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogLevelUnmarshalText(t *testing.T) {
	var level LogLevel
	require.NoError(t, level.UnmarshalText([]byte("info")))
	assert.Equal(t, LogLevelInfo, level)
	assert.Equal(t, "INFO", level.String())

	assert.Error(t, level.UnmarshalText([]byte("nope")))
	assert.Equal(t, LogLevelInfo, level, "failed parse must not change the level")
}

func TestDefaultLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "key=value")

	buf.Reset()
	logger.SetLevel(LogLevelDebug)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = NewNopLogger()
	var _ Logger = NewLogger(LogLevelInfo)
	var _ Logger = &MockLogger{}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 2, EstimateTokens("hello world"))
	assert.Equal(t, 3, EstimateTokens("hello, world"))
	assert.Equal(t, 3, EstimateTokens("don't"))
	assert.Equal(t, 5, EstimateTokens("Who won in 2020?"))
}

func TestEstimatingCounter(t *testing.T) {
	var counter TokenCounter = EstimatingCounter{}
	assert.Equal(t, EstimateTokens("a b c"), counter.Count("a b c"))
}
