// Package typed offers a type-safe view over document metadata.
//
// Metadata values are converted through their JSON representation, so the
// target struct uses ordinary `json` tags.
package typed

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/tilth/pkg/core"
)

// Model wraps a core.Document with a typed Data field.
type Model[T any] struct {
	ID      string
	Source  string
	Content string
	Data    T // The typed metadata

	doc core.Document
}

// Decode builds a typed view of doc.
func Decode[T any](doc core.Document) (*Model[T], error) {
	dataBytes, err := json.Marshal(doc.Metadata())
	if err != nil {
		return nil, fmt.Errorf("metadata marshal failed: %w", err)
	}

	var data T
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return nil, fmt.Errorf("unmarshal to target type failed: %w", err)
	}

	return &Model[T]{
		ID:      doc.ID(),
		Source:  doc.Source(),
		Content: doc.Content(),
		Data:    data,
		doc:     doc,
	}, nil
}

// Document converts the model back. Fields of Data override the metadata
// of the document it was decoded from; entries Data does not know about
// are kept. The lineage is preserved.
func (m *Model[T]) Document() (core.Document, error) {
	dataBytes, err := json.Marshal(m.Data)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to marshal typed data: %w", err)
	}

	var entries map[string]any
	if err := json.Unmarshal(dataBytes, &entries); err != nil {
		return core.Document{}, fmt.Errorf("failed to convert typed data to map: %w", err)
	}

	doc := m.doc
	if doc.ID() == "" {
		doc = core.NewSourceDocument(m.Source, m.Content, core.Metadata{})
	}
	return doc.Clone(m.Content, entries), nil
}
