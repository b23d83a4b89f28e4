package modules

import (
	"errors"

	"github.com/aretw0/tilth/pkg/core"
)

var (
	errNilFunc  = errors.New("function is nil")
	errEmptyKey = errors.New("metadata key is empty")
)

// MetaFunc computes a metadata value for a document. Returning ok=false
// leaves the document without the key.
type MetaFunc func(ec *core.ExecutionContext, doc core.Document) (value any, ok bool)

// MetaModule sets one metadata key on every document.
type MetaModule struct {
	key string
	fn  MetaFunc
}

// Meta sets key to the value fn computes for each document.
func Meta(key string, fn MetaFunc) *MetaModule {
	return &MetaModule{key: key, fn: fn}
}

// MetaValue sets key to the same value on every document.
func MetaValue(key string, value any) *MetaModule {
	return Meta(key, func(*core.ExecutionContext, core.Document) (any, bool) { return value, true })
}

// Name implements core.Named.
func (m *MetaModule) Name() string { return "meta(" + m.key + ")" }

// Validate implements core.Validator.
func (m *MetaModule) Validate() error {
	if m.key == "" {
		return errEmptyKey
	}
	if m.fn == nil {
		return errNilFunc
	}
	return nil
}

// Execute implements core.Module.
func (m *MetaModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	out := make([]core.Document, 0, len(inputs))
	for _, doc := range inputs {
		v, ok := m.fn(ec, doc)
		if !ok {
			out = append(out, doc)
			continue
		}
		out = append(out, doc.WithMetadata(doc.Metadata().Set(m.key, v)))
	}
	return out, nil
}

// Where keeps the documents for which pred returns true.
func Where(pred func(doc core.Document) bool) core.Module {
	return whereModule{pred: pred}
}

type whereModule struct {
	pred func(doc core.Document) bool
}

func (whereModule) Name() string { return "where" }

func (m whereModule) Validate() error {
	if m.pred == nil {
		return errNilFunc
	}
	return nil
}

func (m whereModule) Execute(_ *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	var out []core.Document
	for _, doc := range inputs {
		if m.pred(doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Content replaces each document's content with what fn returns.
func Content(fn func(doc core.Document) string) core.Module {
	return contentModule{fn: fn}
}

type contentModule struct {
	fn func(doc core.Document) string
}

func (contentModule) Name() string { return "content" }

func (m contentModule) Validate() error {
	if m.fn == nil {
		return errNilFunc
	}
	return nil
}

func (m contentModule) Execute(_ *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	out := make([]core.Document, 0, len(inputs))
	for _, doc := range inputs {
		out = append(out, doc.WithContent(m.fn(doc)))
	}
	return out, nil
}

// Documents is a source module: it appends one new document per content
// string to whatever it receives.
func Documents(contents ...string) core.Module {
	return documentsModule{contents: append([]string(nil), contents...)}
}

type documentsModule struct {
	contents []string
}

func (documentsModule) Name() string { return "documents" }

func (m documentsModule) Execute(_ *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	out := append([]core.Document(nil), inputs...)
	for _, c := range m.contents {
		out = append(out, core.NewDocument(c, core.Metadata{}))
	}
	return out, nil
}
