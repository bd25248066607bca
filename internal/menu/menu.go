package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrUnknownChoice = errors.New("invalid choice")
	// ErrExit is returned by an action to end Run normally.
	ErrExit = errors.New("exit requested")
)

type Action func(ctx context.Context) error

type Item struct {
	Key     string
	Label   string
	Help    string
	Aliases []string
	Action  Action
}

type Menu struct {
	Title  string
	Prompt string
	Items  []Item
}

// Validate rejects empty or duplicate keys and aliases, and items without
// an action, so every accepted input maps to exactly one handler.
func (m *Menu) Validate() error {
	seen := make(map[string]string)
	for _, item := range m.Items {
		if item.Action == nil {
			return fmt.Errorf("menu %q: item %q has no action", m.Title, item.Label)
		}
		for _, key := range append([]string{item.Key}, item.Aliases...) {
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("menu %q: item %q has an empty key", m.Title, item.Label)
			}
			if other, dup := seen[key]; dup {
				return fmt.Errorf("menu %q: key %q used by %q and %q", m.Title, key, other, item.Label)
			}
			seen[key] = item.Label
		}
	}
	return nil
}

// Find matches the trimmed choice exactly against keys and aliases.
func (m *Menu) Find(choice string) (Item, bool) {
	choice = strings.TrimSpace(choice)
	for _, item := range m.Items {
		if item.Key == choice {
			return item, true
		}
		for _, alias := range item.Aliases {
			if alias == choice {
				return item, true
			}
		}
	}
	return Item{}, false
}

// Dispatch runs the one action bound to choice.
func (m *Menu) Dispatch(ctx context.Context, choice string) error {
	item, ok := m.Find(choice)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChoice, choice)
	}
	return item.Action(ctx)
}

func (m *Menu) Render(c *Console) {
	if m.Title != "" {
		c.Printf("\n%s\n", m.Title)
	}
	for _, item := range m.Items {
		c.Printf("%s. %s\n", item.Key, item.Label)
	}
}

// HelpLines describes every item, one line each.
func (m *Menu) HelpLines() []string {
	lines := make([]string, 0, len(m.Items))
	for _, item := range m.Items {
		help := item.Help
		if help == "" {
			help = item.Label
		}
		lines = append(lines, fmt.Sprintf("%s. %s: %s", item.Key, item.Label, help))
	}
	return lines
}

// Run shows the menu and dispatches choices until an action returns ErrExit,
// input ends or ctx is cancelled. Action errors are printed and the loop
// continues.
func (m *Menu) Run(ctx context.Context, c *Console) error {
	prompt := m.Prompt
	if prompt == "" {
		prompt = "\nEnter your choice: "
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.Render(c)
		choice, err := c.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice == "" {
			continue
		}

		err = m.Dispatch(ctx, choice)
		switch {
		case err == nil:
		case errors.Is(err, ErrExit):
			return nil
		case errors.Is(err, ErrUnknownChoice):
			c.Println("Invalid choice. Please try again.")
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			c.Printf("Error: %v\n", err)
		}
	}
}
