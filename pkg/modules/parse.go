package modules

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/tilth/pkg/core"
)

// ParseOption configures the metadata parsers (YAML, TOML, JSON, CSV).
type ParseOption func(*parseOptions)

type parseOptions struct {
	key    string
	strict bool
}

// WithKey nests the parsed mapping under key instead of merging its entries
// into the document metadata.
func WithKey(key string) ParseOption {
	return func(o *parseOptions) {
		o.key = key
	}
}

// WithStrict turns parsed numbers into json.Number to avoid precision loss
// on large integers.
func WithStrict(strict bool) ParseOption {
	return func(o *parseOptions) {
		o.strict = strict
	}
}

func buildParseOptions(opts []ParseOption) parseOptions {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// mappingParser decodes document content into a key/value mapping.
type mappingParser func(content string, strict bool) (map[string]any, error)

// parseInto runs parse over every input and layers the result over the
// document metadata. Documents that fail to parse pass through unchanged.
func parseInto(ec *core.ExecutionContext, name string, inputs []core.Document, o parseOptions, parse mappingParser) []core.Document {
	out := make([]core.Document, 0, len(inputs))
	for _, doc := range inputs {
		entries, err := parse(doc.Content(), o.strict)
		if err != nil {
			ec.Logger().Warn("metadata parse failed, document passed through",
				"module", name,
				"document", doc.ID(),
				"source", doc.Source(),
				"error", err,
			)
			out = append(out, doc)
			continue
		}
		if o.strict {
			entries = normalizeNumbers(entries).(map[string]any)
		}
		out = append(out, withEntries(doc, entries, o.key))
	}
	return out
}

func withEntries(doc core.Document, entries map[string]any, key string) core.Document {
	if key != "" {
		if entries == nil {
			entries = map[string]any{}
		}
		return doc.WithMetadata(doc.Metadata().Set(key, entries))
	}
	if len(entries) == 0 {
		return doc
	}
	return doc.WithMetadata(doc.Metadata().MergeMap(entries))
}

// normalizeNumbers traverses maps and slices and converts numeric types to
// json.Number, so YAML and JSON strict parsing agree.
func normalizeNumbers(val any) any {
	switch v := val.(type) {
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, item := range v {
			m[k] = normalizeNumbers(item)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, item := range v {
			l[i] = normalizeNumbers(item)
		}
		return l
	case int:
		return json.Number(fmt.Sprintf("%d", v))
	case int32:
		return json.Number(fmt.Sprintf("%d", v))
	case int64:
		return json.Number(fmt.Sprintf("%d", v))
	case uint64:
		return json.Number(fmt.Sprintf("%d", v))
	case float64:
		return json.Number(fmt.Sprintf("%v", v))
	default:
		return v
	}
}

// cellValue parses a CSV cell as JSON when it looks like an object or an
// array, and returns the raw string otherwise.
//
// CAVEAT: a plain string that happens to be valid JSON (e.g. "[1]") is read
// as structured data.
func cellValue(val string, strict bool) any {
	trimmed := strings.TrimSpace(val)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var parsed any
		decoder := json.NewDecoder(strings.NewReader(trimmed))
		if strict {
			decoder.UseNumber()
		}
		if err := decoder.Decode(&parsed); err == nil {
			return parsed
		}
	}
	return val
}
