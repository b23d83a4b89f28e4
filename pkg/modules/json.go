package modules

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/tilth/pkg/core"
)

// JSONModule reads each document's content as a JSON object and adds its
// entries to the document metadata. Blank content and anything that is not
// an object pass through unchanged.
type JSONModule struct {
	opts parseOptions
}

// JSON creates a JSONModule.
func JSON(opts ...ParseOption) *JSONModule {
	return &JSONModule{opts: buildParseOptions(opts)}
}

// Name implements core.Named.
func (m *JSONModule) Name() string { return "json" }

// Execute implements core.Module.
func (m *JSONModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	return parseInto(ec, m.Name(), inputs, m.opts, parseJSON), nil
}

func parseJSON(content string, strict bool) (map[string]any, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	var payload map[string]any
	decoder := json.NewDecoder(strings.NewReader(content))
	if strict {
		decoder.UseNumber()
	}
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return payload, nil
}
