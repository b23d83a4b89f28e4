package modules

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/aretw0/tilth/pkg/core"
)

// MarkdownModule renders Markdown content to an HTML fragment with goldmark
// (GFM tables, strikethrough, autolinks and task lists, plus footnotes).
type MarkdownModule struct {
	md  goldmark.Markdown
	key string
}

// MarkdownOption configures a MarkdownModule.
type MarkdownOption func(*markdownOptions)

type markdownOptions struct {
	hardWraps  bool
	unsafe     bool
	highlight  bool
	headingIDs bool
	key        string
}

// WithHardWraps renders newlines as <br>.
func WithHardWraps() MarkdownOption {
	return func(o *markdownOptions) { o.hardWraps = true }
}

// WithUnsafeHTML keeps raw HTML from the source instead of omitting it.
func WithUnsafeHTML() MarkdownOption {
	return func(o *markdownOptions) { o.unsafe = true }
}

// WithHighlighting colors fenced code blocks with chroma. Colors come from
// CSS classes, so the page needs a chroma stylesheet.
func WithHighlighting() MarkdownOption {
	return func(o *markdownOptions) { o.highlight = true }
}

// WithHeadingIDs adds an id attribute to every heading.
func WithHeadingIDs() MarkdownOption {
	return func(o *markdownOptions) { o.headingIDs = true }
}

// WithOutputKey stores the HTML under a metadata key and keeps the Markdown
// as content.
func WithOutputKey(key string) MarkdownOption {
	return func(o *markdownOptions) { o.key = key }
}

// Markdown creates a MarkdownModule.
func Markdown(opts ...MarkdownOption) *MarkdownModule {
	var o markdownOptions
	for _, opt := range opts {
		opt(&o)
	}

	var rendererOpts []renderer.Option
	if o.hardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if o.unsafe {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}

	extensions := []goldmark.Extender{
		extension.GFM,      // Tables, strikethrough, autolinks, task lists
		extension.Footnote, // [^1] footnotes
	}
	if o.highlight {
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		))
	}

	var parserOpts []parser.Option
	if o.headingIDs {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	return &MarkdownModule{md: md, key: o.key}
}

// Name implements core.Named.
func (m *MarkdownModule) Name() string { return "markdown" }

// Execute implements core.Module. A document goldmark cannot render passes
// through unchanged.
func (m *MarkdownModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	out := make([]core.Document, 0, len(inputs))
	for _, doc := range inputs {
		var buf bytes.Buffer
		if err := m.md.Convert([]byte(doc.Content()), &buf); err != nil {
			ec.Logger().Warn("markdown render failed, document passed through",
				"module", m.Name(),
				"document", doc.ID(),
				"source", doc.Source(),
				"error", err,
			)
			out = append(out, doc)
			continue
		}
		if m.key != "" {
			out = append(out, doc.WithMetadata(doc.Metadata().Set(m.key, buf.String())))
			continue
		}
		out = append(out, doc.WithContent(buf.String()))
	}
	return out, nil
}
