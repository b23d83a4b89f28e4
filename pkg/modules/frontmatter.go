package modules

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/tilth/pkg/core"
)

type delimiterKind int

const (
	delimiterDefault delimiterKind = iota
	delimiterString
	delimiterChar
)

// Delimiter decides which line separates front matter from content.
// The zero value behaves like CharDelimiter('-').
type Delimiter struct {
	kind delimiterKind
	text string
	char rune
}

// StringDelimiter matches a line exactly equal to s. No trimming and no
// repetition: "---" does not match StringDelimiter("-").
func StringDelimiter(s string) Delimiter {
	return Delimiter{kind: delimiterString, text: s}
}

// CharDelimiter matches a line made of one or more c, optionally followed by
// trailing whitespace. Leading whitespace disqualifies the line.
func CharDelimiter(c rune) Delimiter {
	return Delimiter{kind: delimiterChar, char: c}
}

func (d Delimiter) validate() error {
	switch d.kind {
	case delimiterDefault:
		return nil
	case delimiterString:
		if d.text == "" {
			return fmt.Errorf("%w: empty string", core.ErrInvalidDelimiter)
		}
		if strings.ContainsAny(d.text, "\r\n") {
			return fmt.Errorf("%w: %q spans lines", core.ErrInvalidDelimiter, d.text)
		}
	case delimiterChar:
		if d.char == 0 || unicode.IsSpace(d.char) {
			return fmt.Errorf("%w: character %q", core.ErrInvalidDelimiter, d.char)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", core.ErrInvalidDelimiter, d.kind)
	}
	return nil
}

// Matches reports whether line (without its terminator) is a delimiter line.
func (d Delimiter) Matches(line string) bool {
	switch d.kind {
	case delimiterString:
		return line == d.text
	case delimiterChar:
		return repeatedChar(line, d.char)
	default:
		return repeatedChar(line, '-')
	}
}

func (d Delimiter) String() string {
	switch d.kind {
	case delimiterString:
		return fmt.Sprintf("string(%q)", d.text)
	case delimiterChar:
		return fmt.Sprintf("char(%q)", d.char)
	default:
		return "char('-')"
	}
}

func repeatedChar(line string, c rune) bool {
	trimmed := strings.TrimRightFunc(line, unicode.IsSpace)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if r != c {
			return false
		}
	}
	return true
}

// line is one line of content plus the terminator it ended with ("\n",
// "\r\n" or "" for the last line).
type line struct {
	text string
	eol  string
}

func splitLines(content string) []line {
	var lines []line
	for content != "" {
		i := strings.IndexByte(content, '\n')
		if i < 0 {
			lines = append(lines, line{text: content})
			break
		}
		text, eol := content[:i], "\n"
		if strings.HasSuffix(text, "\r") {
			text, eol = text[:len(text)-1], "\r\n"
		}
		lines = append(lines, line{text: text, eol: eol})
		content = content[i+1:]
	}
	return lines
}

func joinLines(lines []line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.text)
		b.WriteString(l.eol)
	}
	return b.String()
}

// SplitFrontMatter finds the first delimiter line of content. It returns the
// text before that line (each line with its terminator) and the text after
// it. found is false when no line matches.
//
// With skipLeading set, a delimiter on the very first line opens the block
// instead of closing it, as in "---\ntitle: x\n---\nbody".
func SplitFrontMatter(content string, d Delimiter, skipLeading bool) (front, rest string, found bool) {
	lines := splitLines(content)
	start := 0
	if skipLeading && len(lines) > 0 && d.Matches(lines[0].text) {
		start = 1
	}
	for i := start; i < len(lines); i++ {
		if d.Matches(lines[i].text) {
			return joinLines(lines[start:i]), joinLines(lines[i+1:]), true
		}
	}
	return "", "", false
}

// FrontMatterModule extracts a leading block of content, runs a nested chain
// over it and attaches the resulting metadata to the remaining content.
//
// For every input document whose content has a delimiter line, the nested
// chain receives one transient document holding the front matter text and
// the original metadata. Each document the chain returns yields one output
// with the remaining content, the returned metadata and the original
// lineage. Documents without a delimiter pass through and the nested chain
// is not invoked for them.
type FrontMatterModule struct {
	delimiter   Delimiter
	skipLeading bool
	modules     []core.Module
}

// FrontMatter splits at lines of one or more '-'.
func FrontMatter(modules ...core.Module) *FrontMatterModule {
	return &FrontMatterModule{modules: modules}
}

// FrontMatterString splits at the first line exactly equal to delimiter.
func FrontMatterString(delimiter string, modules ...core.Module) *FrontMatterModule {
	return &FrontMatterModule{delimiter: StringDelimiter(delimiter), modules: modules}
}

// FrontMatterChar splits at the first line made only of delimiter characters.
func FrontMatterChar(delimiter rune, modules ...core.Module) *FrontMatterModule {
	return &FrontMatterModule{delimiter: CharDelimiter(delimiter), modules: modules}
}

// SkipLeadingDelimiter returns a copy that treats a delimiter on the first
// line as the opening marker of the block.
func (m *FrontMatterModule) SkipLeadingDelimiter() *FrontMatterModule {
	c := *m
	c.skipLeading = true
	return &c
}

// Name implements core.Named.
func (m *FrontMatterModule) Name() string { return "frontMatter" }

// Children implements core.Composite.
func (m *FrontMatterModule) Children() []core.Module {
	return append([]core.Module(nil), m.modules...)
}

// Validate implements core.Validator.
func (m *FrontMatterModule) Validate() error {
	if len(m.modules) == 0 {
		return core.ErrEmptyChain
	}
	return m.delimiter.validate()
}

// Execute implements core.Module.
func (m *FrontMatterModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	if err := m.Validate(); err != nil {
		return nil, &core.ConfigError{Pipeline: ec.Pipeline(), Module: m.Name(), Err: err}
	}

	out := make([]core.Document, 0, len(inputs))
	for _, doc := range inputs {
		front, rest, found := SplitFrontMatter(doc.Content(), m.delimiter, m.skipLeading)
		if !found {
			out = append(out, doc)
			continue
		}

		results, err := ec.Execute(m.modules, []core.Document{doc.WithContent(front)})
		if err != nil {
			if core.IsConfigError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			ec.Logger().Warn("front matter skipped",
				"module", m.Name(),
				"document", doc.ID(),
				"source", doc.Source(),
				"error", err,
			)
			out = append(out, doc)
			continue
		}

		for _, r := range results {
			out = append(out, doc.WithContent(rest).WithMetadata(r.Metadata()))
		}
	}
	return out, nil
}
