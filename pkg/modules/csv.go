package modules

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/tilth/pkg/core"
)

// CSVModule fans each document out into one document per data row.
//
// The first row is the header. Every other column becomes a metadata entry
// of the row document; a column named "content" (any case) becomes its
// content. Row documents keep the lineage of the document they came from.
// Cells that look like JSON objects or arrays are decoded.
//
// A document that is not valid CSV passes through unchanged. A header
// without rows yields no documents.
type CSVModule struct {
	opts parseOptions
}

// CSV creates a CSVModule. WithKey nests each row's columns under key.
func CSV(opts ...ParseOption) *CSVModule {
	return &CSVModule{opts: buildParseOptions(opts)}
}

// Name implements core.Named.
func (m *CSVModule) Name() string { return "csv" }

// Execute implements core.Module.
func (m *CSVModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	var out []core.Document
	for _, doc := range inputs {
		rows, err := parseCSV(doc.Content(), m.opts.strict)
		if err != nil {
			ec.Logger().Warn("csv parse failed, document passed through",
				"module", m.Name(),
				"document", doc.ID(),
				"source", doc.Source(),
				"error", err,
			)
			out = append(out, doc)
			continue
		}
		for _, row := range rows {
			entries := row.entries
			if m.opts.strict {
				entries = normalizeNumbers(entries).(map[string]any)
			}
			out = append(out, withEntries(doc.WithContent(row.content), entries, m.opts.key))
		}
	}
	return out, nil
}

type csvRow struct {
	content string
	entries map[string]any
}

func parseCSV(content string, strict bool) ([]csvRow, error) {
	reader := csv.NewReader(strings.NewReader(content))
	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read csv header: empty content")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var rows []csvRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		row := csvRow{entries: make(map[string]any, len(headers))}
		for i, h := range headers {
			if strings.EqualFold(h, "content") {
				row.content = record[i]
				continue
			}
			row.entries[h] = cellValue(record[i], strict)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
