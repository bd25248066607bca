package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrMissingQuery = errors.New(`query file has no "query" field`)

// QueryFile is the input accepted by the "f" command.
type QueryFile struct {
	Query string   `json:"query" jsonschema:"minLength=1,description=Text sent as the user's query"`
	Files []string `json:"files,omitempty" jsonschema:"description=Files embedded after the query"`
}

// ParseQuery decodes a query file body.
func ParseQuery(data []byte) (QueryFile, error) {
	var q QueryFile
	if err := json.Unmarshal(data, &q); err != nil {
		return QueryFile{}, fmt.Errorf("malformed query file: %w", err)
	}
	if strings.TrimSpace(q.Query) == "" {
		return QueryFile{}, ErrMissingQuery
	}
	return q, nil
}

// ReadQueryFile loads and parses path. Relative entries in Files are
// resolved against the query file's directory.
func ReadQueryFile(path string) (QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return QueryFile{}, fmt.Errorf("read query file: %w", err)
	}
	q, err := ParseQuery(data)
	if err != nil {
		return QueryFile{}, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i, f := range q.Files {
		if !filepath.IsAbs(f) {
			q.Files[i] = filepath.Join(base, f)
		}
	}
	return q, nil
}

// LoadSources reads each file in order. The first unreadable file aborts
// the load.
func LoadSources(files []string) ([]Source, error) {
	sources := make([]Source, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		sources = append(sources, Source{Path: path, Content: string(data)})
	}
	return sources, nil
}
