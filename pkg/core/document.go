// Package core holds the in-memory execution model of tilth: immutable
// documents and metadata, the Module contract, pipelines and the execution
// context that threads run-wide configuration through them.
package core

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Document is the central entity of the domain.
// It pairs textual content with a metadata snapshot. Documents are values:
// every "mutation" returns a new Document and the receiver is never altered.
//
// ID is the lineage token. Derived documents keep the ID of the document
// they came from, so two documents with the same ID are the same logical
// document at different pipeline stages.
type Document struct {
	id       string
	source   string
	content  string
	metadata Metadata
}

// NewDocument creates a document with a fresh lineage token.
func NewDocument(content string, metadata Metadata) Document {
	return Document{
		id:       uuid.NewString(),
		content:  content,
		metadata: metadata,
	}
}

// NewSourceDocument creates a document that remembers where it was loaded
// from (e.g. a relative file path).
func NewSourceDocument(source, content string, metadata Metadata) Document {
	doc := NewDocument(content, metadata)
	doc.source = source
	return doc
}

// ID returns the lineage token.
func (d Document) ID() string { return d.id }

// Source returns the origin of the document, or "" when it was created in memory.
func (d Document) Source() string { return d.source }

// Content returns the textual content.
func (d Document) Content() string { return d.content }

// Metadata returns the metadata snapshot.
func (d Document) Metadata() Metadata { return d.metadata }

// Get looks up a metadata key.
func (d Document) Get(key string) (any, bool) { return d.metadata.Get(key) }

// WithContent returns a copy with new content. Metadata and lineage are kept.
func (d Document) WithContent(content string) Document {
	d.content = content
	return d
}

// WithMetadata returns a copy carrying metadata instead of the current snapshot.
func (d Document) WithMetadata(metadata Metadata) Document {
	d.metadata = metadata
	return d
}

// Clone derives a document with new content and the given metadata entries
// layered over the current snapshot.
func (d Document) Clone(content string, overrides map[string]any) Document {
	d.content = content
	d.metadata = d.metadata.MergeMap(overrides)
	return d
}

// Rebase returns a copy with a new lineage token, detaching it from the
// document it was derived from.
func (d Document) Rebase() Document {
	d.id = uuid.NewString()
	return d
}

// MarshalJSON encodes the document with flattened metadata.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string   `json:"id"`
		Source   string   `json:"source,omitempty"`
		Content  string   `json:"content"`
		Metadata Metadata `json:"metadata"`
	}{
		ID:       d.id,
		Source:   d.source,
		Content:  d.content,
		Metadata: d.metadata,
	})
}
