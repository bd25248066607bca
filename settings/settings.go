// Package settings holds the per-session request parameters and the field
// editor that changes them one raw string at a time.
package settings

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aicanalytics/gptmenu/config"
	"github.com/aicanalytics/gptmenu/models"
)

// Mode selects which parameter group an exchange uses.
type Mode string

const (
	ModeChat    Mode = "chat"
	ModeCopilot Mode = "copilot"
)

func (m Mode) Title() string {
	if m == ModeCopilot {
		return "Copilot"
	}
	return "Query/Chat"
}

var (
	ErrUnknownField = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid value")
)

type Params struct {
	MaxTokens   int     `json:"max_tokens" validate:"min=1,max=4096"`
	Temperature float64 `json:"temperature" validate:"gte=0,lte=1"`
	Role        string  `json:"role" validate:"oneof=user system assistant"`
}

// Settings is owned by one session. Model is a label from the model table.
type Settings struct {
	Model   string `json:"model" validate:"required,known_model"`
	Chat    Params `json:"chat"`
	Copilot Params `json:"copilot"`

	table *models.Table
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("known_model", validateModel); err != nil {
		panic(fmt.Sprintf("failed to register model validator: %v", err))
	}
}

func validateModel(fl validator.FieldLevel) bool {
	var s *Settings
	switch parent := fl.Parent().Interface().(type) {
	case Settings:
		s = &parent
	case *Settings:
		s = parent
	}
	if s == nil || s.table == nil {
		return false
	}
	_, found := s.table.Lookup(fl.Field().String())
	return found
}

// Defaults seeds both groups from the loaded configuration.
func Defaults(cfg *config.Config, table *models.Table) (*Settings, error) {
	if table == nil {
		table = models.Default()
	}
	row, err := table.Resolve(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("default model: %w", err)
	}
	params := Params{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Role:        cfg.Role,
	}
	s := &Settings{
		Model:   row.Label,
		Chat:    params,
		Copilot: params,
		table:   table,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	err := validate.Struct(*s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidValue, strings.Join(msgs, "; "))
}

// describe turns "Settings.chat.max_tokens" plus the failed tag into a
// sentence a user can act on.
func describe(fe validator.FieldError) string {
	_, key, _ := strings.Cut(fe.Namespace(), ".")
	switch fe.Tag() {
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", key, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "known_model":
		return fmt.Sprintf("%s %q is not in the model table", key, fe.Value())
	default:
		return fmt.Sprintf("%s is %s", key, fe.Tag())
	}
}

func (s *Settings) Params(mode Mode) Params {
	if mode == ModeCopilot {
		return s.Copilot
	}
	return s.Chat
}

// ModelID is the vendor identifier for the selected label.
func (s *Settings) ModelID() string {
	if s.table == nil {
		return ""
	}
	row, _ := s.table.Lookup(s.Model)
	return row.ID
}

func (s *Settings) Table() *models.Table {
	return s.table
}

// Set changes one field from raw user input. The field is named by number
// ("2.1") or key ("chat.max_tokens"). On any parse or range failure the
// previous value is kept and an error is returned.
func (s *Settings) Set(field, raw string) error {
	f, ok := FieldByName(field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	candidate := *s
	if err := f.set(&candidate, strings.TrimSpace(raw)); err != nil {
		return fmt.Errorf("%s: %w", f.Key, err)
	}
	if err := candidate.Validate(); err != nil {
		return err
	}
	*s = candidate
	return nil
}

// Get returns the current value of a field rendered as text.
func (s *Settings) Get(field string) (string, error) {
	f, ok := FieldByName(field)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return f.get(s), nil
}

// Lines renders the numbered tree the editor prints.
func (s *Settings) Lines() []string {
	lines := []string{
		fmt.Sprintf("1. Model: %s (%s)", s.Model, s.ModelID()),
	}
	for i, mode := range []Mode{ModeChat, ModeCopilot} {
		lines = append(lines, fmt.Sprintf("%d. %s", i+2, mode.Title()))
		for _, f := range Fields() {
			if f.Mode == mode {
				lines = append(lines, fmt.Sprintf("   %s %s: %s", f.Number, f.Label, f.get(s)))
			}
		}
	}
	return lines
}
