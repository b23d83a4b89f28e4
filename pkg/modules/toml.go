package modules

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/aretw0/tilth/pkg/core"
)

// TOMLModule is YAMLModule for TOML tables, the front matter format of
// "+++" delimited files.
type TOMLModule struct {
	opts parseOptions
}

// TOML creates a TOMLModule.
func TOML(opts ...ParseOption) *TOMLModule {
	return &TOMLModule{opts: buildParseOptions(opts)}
}

// Name implements core.Named.
func (m *TOMLModule) Name() string { return "toml" }

// Execute implements core.Module.
func (m *TOMLModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	return parseInto(ec, m.Name(), inputs, m.opts, parseTOML), nil
}

func parseTOML(content string, _ bool) (map[string]any, error) {
	var payload map[string]any
	if err := toml.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("invalid toml: %w", err)
	}
	return payload, nil
}
