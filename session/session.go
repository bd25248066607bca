// Package session ties settings, history, credentials and the remote client
// into the object the interactive menus drive.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/credential"
	"github.com/aicanalytics/gptmenu/history"
	"github.com/aicanalytics/gptmenu/llm"
	"github.com/aicanalytics/gptmenu/models"
	"github.com/aicanalytics/gptmenu/providers"
	"github.com/aicanalytics/gptmenu/settings"
	"github.com/aicanalytics/gptmenu/utils"
)

var (
	ErrEmptyQuery = errors.New("query is empty")
	// ErrCredentialRejected is returned with the vendor's authentication
	// error once a replacement key has been collected. The query is not
	// resent.
	ErrCredentialRejected = errors.New("credential rejected; a new key has been installed, submit the query again")
	// ErrQueryFile wraps every failure to read or parse a query file.
	ErrQueryFile = errors.New("invalid query file")
)

// contextTokenBudget bounds the prior turns replayed with each request.
const contextTokenBudget = 2048

type Session struct {
	ID string

	cfg      *config.Config
	settings *settings.Settings
	history  *history.History
	client   llm.LLM
	creds    *credential.Resolver
	tokens   utils.TokenCounter
	memory   *llm.Memory
	logger   utils.Logger
	now      func() time.Time

	credentialReady bool
}

type Option func(*Session)

func WithLogger(logger utils.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithClock fixes the time used for export names and entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithTokenCounter(counter utils.TokenCounter) Option {
	return func(s *Session) { s.tokens = counter }
}

func WithHistory(h *history.History) Option {
	return func(s *Session) { s.history = h }
}

// New builds a session. creds may be nil for providers that take no key.
func New(cfg *config.Config, client llm.LLM, creds *credential.Resolver, table *models.Table, opts ...Option) (*Session, error) {
	if table == nil {
		table = models.Default()
	}
	st, err := settings.Defaults(cfg, table)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:       ulid.Make().String(),
		cfg:      cfg,
		settings: st,
		client:   client,
		creds:    creds,
		logger:   cfg.Logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = utils.NewNopLogger()
	}
	if s.tokens == nil {
		s.tokens = utils.NewTokenCounter(st.ModelID(), s.logger)
	}
	if s.history == nil {
		s.history = history.New()
	}
	s.history.WithClock(s.now)
	if cfg.ContextTurns > 0 {
		s.memory = llm.NewMemory(contextTokenBudget, 2*cfg.ContextTurns, s.tokens, s.logger)
	}

	s.logger.Debug("Session created", "session", s.ID, "provider", cfg.Provider, "model", st.Model)
	return s, nil
}

func (s *Session) Settings() *settings.Settings { return s.settings }

func (s *Session) History() *history.History { return s.history }

func (s *Session) ModelID() string { return s.settings.ModelID() }

// Header is the line printed when a chat or copilot loop starts.
func (s *Session) Header(mode settings.Mode) string {
	verb := "Chatting"
	if mode == settings.ModeCopilot {
		verb = "Copilot"
	}
	return fmt.Sprintf("%s with %s (%s)", verb, s.settings.Model, s.ModelID())
}

// EnsureCredential resolves the key once and installs it on the client.
func (s *Session) EnsureCredential() error {
	if s.credentialReady || s.creds == nil {
		return nil
	}
	key, err := s.creds.Resolve()
	if err != nil {
		return err
	}
	if err := s.install(key); err != nil {
		return err
	}
	s.credentialReady = true
	return nil
}

func (s *Session) install(key string) error {
	if key == "" || key == s.cfg.APIKey() {
		return nil
	}
	return s.client.SetAPIKey(key)
}

// Ask sends one query and records the exchange. Nothing is recorded when the
// call fails.
func (s *Session) Ask(ctx context.Context, mode settings.Mode, query string, sources []history.Source) (history.Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return history.Entry{}, ErrEmptyQuery
	}
	if err := s.EnsureCredential(); err != nil {
		return history.Entry{}, err
	}

	params := s.settings.Params(mode)
	req := s.buildRequest(params, query, sources)

	resp, err := s.client.Generate(ctx, req)
	if err != nil {
		if llm.IsAuthError(err) {
			return history.Entry{}, s.replaceCredential(err)
		}
		return history.Entry{}, err
	}

	promptTokens := resp.PromptTokens
	if promptTokens == 0 {
		promptTokens = s.tokens.Count(req.Prompt)
	}
	entry := history.Entry{
		Mode:         string(mode),
		Model:        s.settings.Model,
		Query:        query,
		Response:     resp.Text,
		Sources:      sources,
		PromptTokens: promptTokens,
	}
	if mode == settings.ModeCopilot {
		entry.CopilotResponse = resp.Text
	}
	stored := s.history.Append(entry)

	if s.memory != nil {
		s.memory.Add(params.Role, withSources(query, sources))
		s.memory.Add("assistant", resp.Text)
	}
	s.logger.Info("Exchange recorded", "session", s.ID, "mode", mode, "entries", s.history.Len())
	return stored, nil
}

// AskFromFile reads a query file, embeds the files it lists and asks.
func (s *Session) AskFromFile(ctx context.Context, mode settings.Mode, path string) (history.Entry, error) {
	q, err := history.ReadQueryFile(path)
	if err != nil {
		return history.Entry{}, fmt.Errorf("%w: %w", ErrQueryFile, err)
	}
	sources, err := history.LoadSources(q.Files)
	if err != nil {
		return history.Entry{}, fmt.Errorf("%w: %w", ErrQueryFile, err)
	}
	return s.Ask(ctx, mode, q.Query, sources)
}

func (s *Session) replaceCredential(cause error) error {
	s.logger.Warn("Credential rejected", "session", s.ID, "error", cause)
	if s.creds == nil {
		return cause
	}
	key, err := s.creds.Reprompt()
	if err != nil {
		return errors.Join(cause, err)
	}
	if err := s.client.SetAPIKey(key); err != nil {
		return errors.Join(cause, err)
	}
	s.credentialReady = true
	return fmt.Errorf("%w: %w", ErrCredentialRejected, cause)
}

// buildRequest fills both shapes: a "<role>: <text>" completion prompt and
// the equivalent chat messages.
func (s *Session) buildRequest(params settings.Params, query string, sources []history.Source) *providers.Request {
	text := withSources(query, sources)

	var prior []providers.Message
	if s.memory != nil {
		prior = s.memory.Messages()
	}

	lines := make([]string, 0, len(prior)+1)
	for _, m := range prior {
		lines = append(lines, m.Role+": "+m.Content)
	}
	lines = append(lines, params.Role+": "+text)

	messages := make([]providers.Message, 0, len(prior)+2)
	if s.cfg.SystemPrompt != "" {
		messages = append(messages, providers.Message{Role: "system", Content: s.cfg.SystemPrompt})
	}
	messages = append(messages, prior...)
	messages = append(messages, providers.Message{Role: params.Role, Content: text})

	return &providers.Request{
		Model:       s.settings.ModelID(),
		Prompt:      strings.Join(lines, "\n"),
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: providers.Float(params.Temperature),
	}
}

func withSources(query string, sources []history.Source) string {
	if len(sources) == 0 {
		return query
	}
	var b strings.Builder
	b.WriteString(query)
	for _, src := range sources {
		fmt.Fprintf(&b, "\n\n--- %s ---\n%s", src.Path, src.Content)
	}
	return b.String()
}

// Export writes the history under dir, or the configured export directory
// when dir is empty.
func (s *Session) Export(dir string) (string, error) {
	if dir == "" {
		dir = s.cfg.ExportDir
	}
	path, err := s.history.Export(dir, s.now())
	if err != nil {
		return "", err
	}
	s.logger.Info("History exported", "session", s.ID, "path", path, "entries", s.history.Len())
	return path, nil
}

func (s *Session) SaveHistory(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("no file name given")
	}
	return s.history.Save(path)
}
