package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const frequencySchemaURL = "schema://frequency.json"

// frequencySchema describes the word-frequency document:
// {"words": {"<word>": {"zipf": <number>, ...}, ...}}.
// Extra per-word fields are allowed and ignored.
var frequencySchema = map[string]any{
	"type":     "object",
	"required": []any{"words"},
	"properties": map[string]any{
		"words": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":     "object",
				"required": []any{"zipf"},
				"properties": map[string]any{
					"zipf": map[string]any{"type": "number"},
				},
			},
		},
	},
}

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func frequencyValidator() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(frequencySchemaURL, frequencySchema); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(frequencySchemaURL)
	})
	return compiledSchema, compileErr
}

type frequencyDoc struct {
	Words map[string]struct {
		Zipf float64 `json:"zipf"`
	} `json:"words"`
}

// parseFrequencyDoc validates the document shape and returns word→zipf.
func parseFrequencyDoc(data []byte) (map[string]float64, error) {
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := frequencyValidator()
	if err != nil {
		return nil, fmt.Errorf("compile frequency schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("frequency document: %w", err)
	}

	var doc frequencyDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode frequency document: %w", err)
	}

	out := make(map[string]float64, len(doc.Words))
	for w, e := range doc.Words {
		out[w] = e.Zipf
	}
	return out, nil
}
