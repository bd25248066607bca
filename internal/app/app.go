// Package app is the interactive chat console: the main menu, the chat and
// copilot loops, the settings editor and help.
package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/aicanalytics/gptmenu/internal/menu"
	"github.com/aicanalytics/gptmenu/session"
	"github.com/aicanalytics/gptmenu/settings"
	"github.com/aicanalytics/gptmenu/utils"
)

const (
	Name = "gptmenu"

	queryPrompt = "\nEnter your query ('f' to submit by file or 'x' to exit): "
	filePrompt  = "Enter the path to JSON file: "
)

type App struct {
	session *session.Session
	console *menu.Console
	logger  utils.Logger
	now     func() time.Time
	main    *menu.Menu
}

type Option func(*App)

func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

func WithLogger(logger utils.Logger) Option {
	return func(a *App) { a.logger = logger }
}

func New(s *session.Session, console *menu.Console, opts ...Option) (*App, error) {
	a := &App{
		session: s,
		console: console,
		logger:  utils.NewNopLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.main = a.mainMenu()
	if err := a.main.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) mainMenu() *menu.Menu {
	return &menu.Menu{
		Title: "Main Menu",
		Items: []menu.Item{
			{Key: "1", Label: "Chat", Help: "Ask questions and get answers.", Action: a.chatAction(settings.ModeChat)},
			{Key: "2", Label: "Copilot", Help: "Get code suggestions.", Aliases: []string{"copilot::"}, Action: a.chatAction(settings.ModeCopilot)},
			{Key: "3", Label: "Export data", Help: "Write the chat history to a timestamped JSON file.", Action: a.export},
			{Key: "4", Label: "Save history as...", Help: "Write the chat history to a file you name.", Action: a.saveAs},
			{Key: "s", Label: "Settings", Help: "Change the model and the per-mode parameters.", Action: a.editSettings},
			{Key: "?", Label: "Help", Help: "Show this help.", Action: a.help},
			{Key: "x", Label: "Exit", Help: "Leave the program.", Action: a.exit},
		},
	}
}

// Run prints the banner and serves the main menu until exit or end of input.
func (a *App) Run(ctx context.Context) error {
	a.console.Println(Banner(a.now()))
	err := a.main.Run(ctx, a.console)
	if errors.Is(err, context.Canceled) {
		a.console.Println("\nGoodbye!")
		return nil
	}
	return err
}

func Banner(t time.Time) string {
	return Name + " - GPT chat console\nToday is " + t.Format("Monday, 2 January 2006")
}

func (a *App) chatAction(mode settings.Mode) menu.Action {
	return func(ctx context.Context) error {
		return a.chat(ctx, mode)
	}
}

// chat loops over queries until 'x', end of input or cancellation. Failures
// are reported and the loop continues.
func (a *App) chat(ctx context.Context, mode settings.Mode) error {
	a.console.Printf("\n%s\n", a.session.Header(mode))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		query, err := a.console.Prompt(queryPrompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		var (
			response string
			askErr   error
		)
		switch strings.ToLower(query) {
		case "x":
			return nil
		case "":
			continue
		case "f":
			path, err := a.console.Prompt(filePrompt)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			entry, err := a.session.AskFromFile(ctx, mode, path)
			response, askErr = entry.Response, err
		default:
			entry, err := a.session.Ask(ctx, mode, query, nil)
			response, askErr = entry.Response, err
		}

		if askErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.report(askErr)
			continue
		}
		a.console.Printf("\n%s\n", response)
	}
}

func (a *App) report(err error) {
	a.logger.Warn("Query failed", "session", a.session.ID, "error", err)
	switch {
	case errors.Is(err, session.ErrQueryFile):
		a.console.Printf("Invalid JSON query. Please try again. (%v)\n", err)
	case errors.Is(err, session.ErrCredentialRejected):
		a.console.Println("The API key was rejected. A new key has been saved; please submit your query again.")
	default:
		a.console.Printf("Error: %v\n", err)
	}
}

func (a *App) export(context.Context) error {
	path, err := a.session.Export("")
	if err != nil {
		return err
	}
	a.console.Printf("Chat history exported to %s\n", path)
	return nil
}

func (a *App) saveAs(context.Context) error {
	path, err := a.console.Prompt("Enter the file name to save the history to: ")
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := a.session.SaveHistory(path); err != nil {
		return err
	}
	a.console.Printf("Chat history saved to %s\n", path)
	return nil
}

func (a *App) help(context.Context) error {
	a.console.Println("\nHelp:")
	for _, line := range a.main.HelpLines() {
		a.console.Println(line)
	}
	a.console.Println("\nType \"copilot::\" at the main menu to jump straight into Copilot mode.")
	return nil
}

func (a *App) exit(context.Context) error {
	a.console.Println("Exiting the program...")
	return menu.ErrExit
}
