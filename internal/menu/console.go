// Package menu is the line-oriented menu engine behind the interactive
// tools: a console over any reader and writer, and menus that dispatch one
// action per key.
package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Console reads whole lines and writes prompts. All input for one process
// must go through a single Console so buffered lines are not lost.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Prompt prints label and returns the next line without surrounding space.
// A final line without a newline is still returned; after that io.EOF.
func (c *Console) Prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out)
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) Println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

func (c *Console) Writer() io.Writer {
	return c.out
}
