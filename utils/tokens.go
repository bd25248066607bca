package utils

import (
	"strings"
	"sync"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter reports how many tokens a model would see for a piece of text.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts with the BPE encoding of the configured model.
// The encoding is loaded on first use; when it cannot be loaded (unknown
// model, no network for the BPE ranks) it falls back to EstimateTokens.
type TiktokenCounter struct {
	model  string
	logger Logger

	once     sync.Once
	encoding *tiktoken.Tiktoken
}

func NewTokenCounter(model string, logger Logger) *TiktokenCounter {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &TiktokenCounter{model: model, logger: logger}
}

func (c *TiktokenCounter) load() {
	encoding, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		c.logger.Debug("No encoding for model, trying cl100k_base", "model", c.model, "error", err)
		encoding, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		c.logger.Warn("Token encoding unavailable, estimating instead", "error", err)
		return
	}
	c.encoding = encoding
}

func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(c.load)
	if c.encoding == nil {
		return EstimateTokens(text)
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// EstimatingCounter never touches the network.
type EstimatingCounter struct{}

func (EstimatingCounter) Count(text string) int { return EstimateTokens(text) }

// EstimateTokens approximates BPE token counts: each run of letters/digits
// is one token and every other non-space rune is a token of its own.
func EstimateTokens(text string) int {
	tokens := 0
	for _, word := range strings.Fields(text) {
		inRun := false
		for _, r := range word {
			switch {
			case unicode.IsLetter(r) || unicode.IsDigit(r):
				if !inRun {
					tokens++
					inRun = true
				}
			default:
				tokens++
				inRun = false
			}
		}
	}
	return tokens
}
