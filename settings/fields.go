package settings

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindModel
)

// Field is one editable leaf of the settings tree.
type Field struct {
	Number string
	Key    string
	Label  string
	Kind   Kind
	// Mode is empty for top-level fields.
	Mode Mode

	get func(*Settings) string
	set func(*Settings, string) error
}

var fields = buildFields()

func buildFields() []Field {
	out := []Field{{
		Number: "1",
		Key:    "model",
		Label:  "Model",
		Kind:   KindModel,
		get:    func(s *Settings) string { return s.Model },
		set: func(s *Settings, raw string) error {
			row, err := s.table.Resolve(raw)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
			s.Model = row.Label
			return nil
		},
	}}

	groups := []struct {
		number string
		mode   Mode
		params func(*Settings) *Params
	}{
		{"2", ModeChat, func(s *Settings) *Params { return &s.Chat }},
		{"3", ModeCopilot, func(s *Settings) *Params { return &s.Copilot }},
	}
	for _, g := range groups {
		params := g.params
		out = append(out,
			Field{
				Number: g.number + ".1",
				Key:    string(g.mode) + ".max_tokens",
				Label:  "Max tokens",
				Kind:   KindInt,
				Mode:   g.mode,
				get:    func(s *Settings) string { return strconv.Itoa(params(s).MaxTokens) },
				set: func(s *Settings, raw string) error {
					n, err := strconv.Atoi(raw)
					if err != nil {
						return fmt.Errorf("%w: %q is not a whole number", ErrInvalidValue, raw)
					}
					params(s).MaxTokens = n
					return nil
				},
			},
			Field{
				Number: g.number + ".2",
				Key:    string(g.mode) + ".temperature",
				Label:  "Temperature",
				Kind:   KindFloat,
				Mode:   g.mode,
				get: func(s *Settings) string {
					return strconv.FormatFloat(params(s).Temperature, 'g', -1, 64)
				},
				set: func(s *Settings, raw string) error {
					v, err := strconv.ParseFloat(raw, 64)
					if err != nil {
						return fmt.Errorf("%w: %q is not a number", ErrInvalidValue, raw)
					}
					params(s).Temperature = v
					return nil
				},
			},
			Field{
				Number: g.number + ".3",
				Key:    string(g.mode) + ".role",
				Label:  "Role",
				Kind:   KindString,
				Mode:   g.mode,
				get:    func(s *Settings) string { return params(s).Role },
				set: func(s *Settings, raw string) error {
					params(s).Role = strings.ToLower(raw)
					return nil
				},
			},
		)
	}
	return out
}

// Fields lists every editable field in display order.
func Fields() []Field {
	return append([]Field(nil), fields...)
}

// FieldByName resolves a number or key, ignoring case.
func FieldByName(name string) (Field, bool) {
	name = strings.TrimSpace(name)
	for _, f := range fields {
		if f.Number == name || strings.EqualFold(f.Key, name) {
			return f, true
		}
	}
	return Field{}, false
}
