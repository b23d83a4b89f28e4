package modules

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/tilth/pkg/core"
)

// YAMLModule reads each document's content as a YAML mapping and adds its
// entries to the document metadata. Content is left as is. A document whose
// content is not a YAML mapping passes through unchanged.
type YAMLModule struct {
	opts parseOptions
}

// YAML creates a YAMLModule.
func YAML(opts ...ParseOption) *YAMLModule {
	return &YAMLModule{opts: buildParseOptions(opts)}
}

// Name implements core.Named.
func (m *YAMLModule) Name() string { return "yaml" }

// Execute implements core.Module.
func (m *YAMLModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	return parseInto(ec, m.Name(), inputs, m.opts, parseYAML), nil
}

func parseYAML(content string, _ bool) (map[string]any, error) {
	var payload map[string]any
	if err := yaml.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return payload, nil
}
