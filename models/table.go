// Package models holds the fixed table that maps human-readable model
// labels to vendor model identifiers.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Model is one row of the table.
type Model struct {
	Label string `json:"label"`
	ID    string `json:"id"`
}

// Table is read-only once built. Rows keep their declaration order so menus
// can number them.
type Table struct {
	rows []Model
}

var defaultRows = []Model{
	{Label: "GPT-1", ID: "text-gpt-1-en-12b"},
	{Label: "GPT-2", ID: "text-gpt-2-en-117b"},
	{Label: "GPT-3", ID: "text-davinci-002"},
	{Label: "GPT-3.5", ID: "text-davinci-003"},
	{Label: "GPT-4", ID: "text-davinci-004"},
	{Label: "Jurassic-1 Jumbo", ID: "text-jurassic-1-jumbo-en-175b"},
	{Label: "Megatron-Turing NLG", ID: "text-megatron-turing-nlg-345m-355b"},
	{Label: "WuDao 2.0", ID: "text-wudao-2-0-en-1.76T"},
}

// DefaultLabel is the model selected when nothing else is configured.
const DefaultLabel = "GPT-3"

func Default() *Table {
	t, _ := NewTable(defaultRows)
	return t
}

// NewTable copies rows and rejects empty or duplicate labels.
func NewTable(rows []Model) (*Table, error) {
	seen := make(map[string]bool, len(rows))
	out := make([]Model, 0, len(rows))
	for _, row := range rows {
		key := strings.ToLower(strings.TrimSpace(row.Label))
		if key == "" || row.ID == "" {
			return nil, fmt.Errorf("model table: empty label or id in %+v", row)
		}
		if seen[key] {
			return nil, fmt.Errorf("model table: duplicate label %q", row.Label)
		}
		seen[key] = true
		out = append(out, row)
	}
	return &Table{rows: out}, nil
}

// Lookup finds a row by label, ignoring case and surrounding space.
func (t *Table) Lookup(label string) (Model, bool) {
	key := strings.TrimSpace(label)
	for _, row := range t.rows {
		if strings.EqualFold(row.Label, key) {
			return row, true
		}
	}
	return Model{}, false
}

// Resolve accepts either a label or the 1-based position shown by Labels.
func (t *Table) Resolve(input string) (Model, error) {
	input = strings.TrimSpace(input)
	if row, ok := t.Lookup(input); ok {
		return row, nil
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(t.rows) {
			return t.rows[n-1], nil
		}
		return Model{}, fmt.Errorf("model number %d out of range 1-%d", n, len(t.rows))
	}
	return Model{}, fmt.Errorf("unknown model %q (options: %s)", input, strings.Join(t.Labels(), ", "))
}

// LabelFor is the reverse lookup, identifier to label.
func (t *Table) LabelFor(id string) (string, bool) {
	for _, row := range t.rows {
		if row.ID == id {
			return row.Label, true
		}
	}
	return "", false
}

func (t *Table) Labels() []string {
	labels := make([]string, len(t.rows))
	for i, row := range t.rows {
		labels[i] = row.Label
	}
	return labels
}

func (t *Table) Entries() []Model {
	return append([]Model(nil), t.rows...)
}

func (t *Table) Len() int { return len(t.rows) }
