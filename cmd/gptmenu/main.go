// Command gptmenu is an interactive console for chatting with a hosted
// completion model.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/credential"
	"github.com/aicanalytics/gptmenu/history"
	"github.com/aicanalytics/gptmenu/internal/app"
	"github.com/aicanalytics/gptmenu/internal/menu"
	"github.com/aicanalytics/gptmenu/llm"
	"github.com/aicanalytics/gptmenu/providers"
	"github.com/aicanalytics/gptmenu/session"
	"github.com/aicanalytics/gptmenu/utils"
)

type cmdFlags struct {
	envFiles  []string
	logLevel  string
	exportDir string
	schema    string
	provider  string
	model     string
}

func parseFlags() *cmdFlags {
	flags := &cmdFlags{}
	pflag.StringSliceVar(&flags.envFiles, "env-file", nil, "Environment files to load (default .env)")
	pflag.StringVar(&flags.logLevel, "log-level", "", "Log level (off, error, warn, info, debug)")
	pflag.StringVar(&flags.exportDir, "export-dir", "", "Directory for exported chat history")
	pflag.StringVar(&flags.schema, "schema", "", "Print the JSON schema for 'query' or 'history' files and exit")
	pflag.StringVar(&flags.provider, "provider", "", "Provider (openai-completions, openai, ollama, mock)")
	pflag.StringVar(&flags.model, "model", "", "Model label or number from the model table")
	pflag.Parse()
	return flags
}

func main() {
	flags := parseFlags()

	if flags.schema != "" {
		if err := printSchema(os.Stdout, flags.schema); err != nil {
			exitWithError("Error: %v\n", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	finished := make(chan struct{})
	// Reads from stdin cannot be interrupted, so Ctrl-C at a prompt ends
	// the process here.
	go func() {
		select {
		case <-ctx.Done():
			fmt.Println("\nGoodbye!")
			os.Exit(0)
		case <-finished:
		}
	}()

	err := run(ctx, flags)
	close(finished)
	stop()
	if err != nil {
		exitWithError("Error: %v\n", err)
	}
}

func exitWithError(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func printSchema(w io.Writer, name string) error {
	var schema any
	switch name {
	case "query":
		schema = history.QuerySchema()
	case "history":
		schema = history.HistorySchema()
	default:
		return fmt.Errorf("unknown schema %q (want query or history)", name)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}

func configOptions(flags *cmdFlags) ([]config.ConfigOption, error) {
	var opts []config.ConfigOption
	if flags.provider != "" {
		opts = append(opts, config.SetProvider(flags.provider))
	}
	if flags.model != "" {
		opts = append(opts, config.SetModel(flags.model))
	}
	if flags.exportDir != "" {
		opts = append(opts, config.SetExportDir(flags.exportDir))
	}
	if flags.logLevel != "" {
		level, err := utils.ParseLogLevel(flags.logLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, config.SetLogLevel(level))
	}
	return opts, nil
}

func run(ctx context.Context, flags *cmdFlags) error {
	cfg, err := config.LoadConfig(flags.envFiles...)
	if err != nil {
		return err
	}
	opts, err := configOptions(flags)
	if err != nil {
		return err
	}
	config.ApplyOptions(cfg, opts...)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := utils.NewLogger(cfg.LogLevel)
	cfg.Logger = logger

	client, err := llm.NewLLM(cfg, logger, providers.GetDefaultRegistry())
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	console := menu.NewConsole(os.Stdin, os.Stdout)

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
		Prompter: &credential.TerminalPrompter{
			In:       os.Stdin,
			Out:      os.Stdout,
			Fallback: credential.LinePrompter{Lines: console},
		},
		Logger: logger,
	}

	s, err := session.New(cfg, client, creds, nil, session.WithLogger(logger))
	if err != nil {
		return err
	}
	a, err := app.New(s, console, app.WithLogger(logger))
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
