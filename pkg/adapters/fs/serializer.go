package fs

import (
	"bytes"
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/tilth/pkg/core"
)

// Serializer defines how a document is turned into file bytes.
type Serializer interface {
	Serialize(doc core.Document) ([]byte, error)
}

// DefaultSerializers returns the serializers WriteFiles picks by output
// extension when none is set explicitly. Other extensions get RawSerializer.
// Markdown files get their metadata back as a front matter block.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json":     JSONSerializer{},
		".yaml":     YAMLSerializer{},
		".yml":      YAMLSerializer{},
		".md":       MarkdownSerializer{},
		".markdown": MarkdownSerializer{},
	}
}

// reserved metadata keys describe files, not documents, and are never
// written back.
var reserved = map[string]bool{
	SourcePathKey:      true,
	RelativePathKey:    true,
	FileNameKey:        true,
	FileExtKey:         true,
	DestinationPathKey: true,
}

func payloadOf(doc core.Document) map[string]any {
	out := doc.Metadata().ToMap()
	for k := range reserved {
		delete(out, k)
	}
	return out
}

// --- Raw Serializer ---

// RawSerializer writes the content only.
type RawSerializer struct{}

func (RawSerializer) Serialize(doc core.Document) ([]byte, error) {
	return []byte(doc.Content()), nil
}

// --- Markdown Serializer ---

// MarkdownSerializer writes metadata as a YAML front matter block followed
// by the content. Keys limits the block to the listed keys, in that order.
type MarkdownSerializer struct {
	Keys []string
}

func (s MarkdownSerializer) Serialize(doc core.Document) ([]byte, error) {
	payload := payloadOf(doc)

	var node yaml.Node
	node.Kind = yaml.MappingNode
	for _, k := range s.keys(payload) {
		v, ok := payload[k]
		if !ok {
			continue
		}
		var value yaml.Node
		if err := value.Encode(v); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &value)
	}

	var buf bytes.Buffer
	if len(node.Content) > 0 {
		buf.WriteString("---\n")
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(&node); err != nil {
			return nil, err
		}
		encoder.Close()
		buf.WriteString("---\n")
	}
	buf.WriteString(doc.Content())
	return buf.Bytes(), nil
}

func (s MarkdownSerializer) keys(payload map[string]any) []string {
	if len(s.Keys) > 0 {
		return s.Keys
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- JSON Serializer ---

// JSONSerializer writes {"metadata": {...}, "content": "..."}.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(doc core.Document) ([]byte, error) {
	payload := map[string]any{
		"metadata": payloadOf(doc),
		"content":  doc.Content(),
	}
	return json.MarshalIndent(payload, "", "  ")
}

// --- YAML Serializer ---

// YAMLSerializer writes the metadata entries at the top level plus a
// "content" entry when the content is not empty.
type YAMLSerializer struct{}

func (YAMLSerializer) Serialize(doc core.Document) ([]byte, error) {
	payload := payloadOf(doc)
	if doc.Content() != "" {
		payload["content"] = doc.Content()
	}
	return yaml.Marshal(payload)
}
