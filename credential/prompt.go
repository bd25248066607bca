package credential

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type Prompter interface {
	PromptSecret(prompt string) (string, error)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(prompt string) (string, error)

func (f PromptFunc) PromptSecret(prompt string) (string, error) { return f(prompt) }

// LineReader is anything that prints a prompt and returns the next line,
// such as the menu console.
type LineReader interface {
	Prompt(label string) (string, error)
}

// LinePrompter reads the key as a visible line.
type LinePrompter struct {
	Lines LineReader
}

func (p LinePrompter) PromptSecret(prompt string) (string, error) {
	return p.Lines.Prompt(prompt)
}

// TerminalPrompter hides the key while it is typed when In is a terminal.
// Otherwise it defers to Fallback, which must share the caller's buffered
// input so no line is lost.
type TerminalPrompter struct {
	In       *os.File
	Out      io.Writer
	Fallback Prompter
}

func (p *TerminalPrompter) PromptSecret(prompt string) (string, error) {
	if p.In == nil || !term.IsTerminal(int(p.In.Fd())) {
		if p.Fallback == nil {
			return "", errors.New("no terminal and no fallback prompter")
		}
		return p.Fallback.PromptSecret(prompt)
	}

	fmt.Fprint(p.Out, prompt)
	secret, err := term.ReadPassword(int(p.In.Fd()))
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
