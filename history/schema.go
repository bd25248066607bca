package history

import (
	"github.com/invopop/jsonschema"
)

func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
}

// QuerySchema describes the query file format.
func QuerySchema() *jsonschema.Schema {
	s := reflector().Reflect(&QueryFile{})
	s.Title = "gptmenu query file"
	return s
}

// HistorySchema describes an exported history: a list of entries.
func HistorySchema() *jsonschema.Schema {
	entry := reflector().Reflect(&Entry{})
	entry.Version = ""
	return &jsonschema.Schema{
		Version: jsonschema.Version,
		Title:   "gptmenu history export",
		Type:    "array",
		Items:   entry,
	}
}
