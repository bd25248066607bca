// Package history keeps the session transcript and reads and writes the JSON
// files the chat client exchanges with the user.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Source is a file whose contents were embedded into a query.
type Source struct {
	Path    string `json:"path" jsonschema:"description=Path as given in the query file"`
	Content string `json:"content"`
}

// Entry is one successful exchange. Only query and response are required
// when reading; the other fields are filled in by the session.
// copilot_response is always written, empty for chat turns.
type Entry struct {
	ID              string    `json:"id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	Mode            string    `json:"mode,omitempty" jsonschema:"enum=chat,enum=copilot"`
	Model           string    `json:"model,omitempty"`
	Query           string    `json:"query"`
	Response        string    `json:"response"`
	CopilotResponse string    `json:"copilot_response"`
	Sources         []Source  `json:"sources,omitempty"`
	PromptTokens    int       `json:"prompt_tokens,omitempty"`
}

// History is append-only: entries are never edited or removed.
type History struct {
	entries []Entry
	now     func() time.Time
}

func New() *History {
	return &History{now: time.Now}
}

// WithClock replaces the timestamp source.
func (h *History) WithClock(now func() time.Time) *History {
	h.now = now
	return h
}

// Append stores e, assigning an ID and timestamp when they are missing, and
// returns the stored copy.
func (h *History) Append(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = h.now().UTC()
	}
	e.Sources = append([]Source(nil), e.Sources...)
	h.entries = append(h.entries, e)
	return e
}

// Entries returns a copy in arrival order.
func (h *History) Entries() []Entry {
	return append([]Entry(nil), h.entries...)
}

func (h *History) Len() int { return len(h.entries) }

func (h *History) Last() (Entry, bool) {
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// WriteTo writes the history as an indented JSON list. An empty history is
// written as [].
func (h *History) WriteTo(w io.Writer) (int64, error) {
	entries := h.entries
	if entries == nil {
		entries = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return 0, fmt.Errorf("encode history: %w", err)
	}
	return buf.WriteTo(w)
}

// Save writes the history to path through a temporary file in the same
// directory, so a failed write never leaves a truncated file behind.
func (h *History) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := h.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("save history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Read decodes a JSON list of entries.
func Read(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("malformed history: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Load reads a saved history file back into a History.
func Load(path string) (*History, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer f.Close()

	entries, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", path, err)
	}
	h := New()
	h.entries = entries
	return h, nil
}

const exportLayout = "gpt_chat_export_20060102_150405.json"

// ExportFileName names an export after the moment it was taken.
func ExportFileName(t time.Time) string {
	return t.Format(exportLayout)
}

// Export saves the history under dir with a timestamped name and returns
// the full path.
func (h *History) Export(dir string, t time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export history: %w", err)
	}
	path := filepath.Join(dir, ExportFileName(t))
	if err := h.Save(path); err != nil {
		return "", err
	}
	return path, nil
}
