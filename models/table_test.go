package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	table := Default()
	assert.Equal(t, 8, table.Len())

	row, ok := table.Lookup(DefaultLabel)
	require.True(t, ok)
	assert.Equal(t, "text-davinci-002", row.ID)

	labels := table.Labels()
	assert.Equal(t, "GPT-1", labels[0])
	assert.Equal(t, "WuDao 2.0", labels[len(labels)-1])
}

func TestLookupIgnoresCase(t *testing.T) {
	row, ok := Default().Lookup("  wudao 2.0 ")
	require.True(t, ok)
	assert.Equal(t, "WuDao 2.0", row.Label)

	_, ok = Default().Lookup("GPT-5")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	table := Default()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"label", "GPT-3.5", "text-davinci-003", false},
		{"index", "1", "text-gpt-1-en-12b", false},
		{"last index", "8", "text-wudao-2-0-en-1.76T", false},
		{"index out of range", "9", "", true},
		{"zero", "0", "", true},
		{"unknown", "BLOOM", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := table.Resolve(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, row.ID)
		})
	}
}

func TestLabelFor(t *testing.T) {
	label, ok := Default().LabelFor("text-davinci-004")
	require.True(t, ok)
	assert.Equal(t, "GPT-4", label)

	_, ok = Default().LabelFor("missing")
	assert.False(t, ok)
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable([]Model{{Label: "A", ID: "a"}, {Label: "a", ID: "b"}})
	assert.Error(t, err)

	_, err = NewTable([]Model{{Label: "", ID: "a"}})
	assert.Error(t, err)
}

func TestEntriesIsACopy(t *testing.T) {
	table := Default()
	entries := table.Entries()
	entries[0].ID = "changed"

	row, _ := table.Lookup("GPT-1")
	assert.Equal(t, "text-gpt-1-en-12b", row.ID)
}
