package history

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr error
	}{
		{"plain", `{"query":"Who won in 2020?"}`, "Who won in 2020?", nil},
		{"extra fields ignored", `{"query":"hi","author":"me"}`, "hi", nil},
		{"missing query", `{"question":"hi"}`, "", ErrMissingQuery},
		{"blank query", `{"query":"   "}`, "", ErrMissingQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuery([]byte(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Query)
		})
	}
}

func TestParseQueryMalformed(t *testing.T) {
	_, err := ParseQuery([]byte(`{"query": `))
	require.Error(t, err)
	assert.ErrorContains(t, err, "malformed query file")

	var syntaxErr *json.SyntaxError
	_, err = ParseQuery([]byte(`not json`))
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestReadQueryFileResolvesSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o600))
	path := filepath.Join(dir, "query.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"query":"review this","files":["main.go"]}`), 0o600))

	q, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, "review this", q.Query)
	assert.Equal(t, []string{filepath.Join(dir, "main.go")}, q.Files)

	sources, err := LoadSources(q.Files)
	require.NoError(t, err)
	assert.Equal(t, []Source{{Path: filepath.Join(dir, "main.go"), Content: "package main"}}, sources)
}

func TestReadQueryFileMissing(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadSourcesMissing(t *testing.T) {
	_, err := LoadSources([]string{filepath.Join(t.TempDir(), "gone.txt")})
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestSchemas(t *testing.T) {
	query, err := json.Marshal(QuerySchema())
	require.NoError(t, err)
	assert.Contains(t, string(query), `"query"`)
	assert.Contains(t, string(query), `"required":["query"]`)

	hist := HistorySchema()
	assert.Equal(t, "array", hist.Type)
	require.NotNil(t, hist.Items)
	data, err := json.Marshal(hist)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"copilot_response"`)
}
