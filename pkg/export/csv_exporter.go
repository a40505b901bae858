package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
)

// Dataset is the tabular content of a report. Summary holds key/value lines
// rendered above the table.
type Dataset struct {
	Title   string
	Summary []KeyValue
	Headers []string
	Rows    []map[string]string
}

type KeyValue struct {
	Key   string
	Value string
}

var errNoHeaders = errors.New("dataset has no headers")

// CSVExporter renders datasets as CSV. Cells that a spreadsheet would
// evaluate as a formula are prefixed with a quote.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) ContentType() string { return "text/csv" }

func (e *CSVExporter) Extension() string { return "csv" }

// Render writes the summary, one empty record, then the header and rows.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errNoHeaders
	}
	var records [][]string
	for _, kv := range data.Summary {
		records = append(records, []string{safeCell(kv.Key), safeCell(kv.Value)})
	}
	if len(records) > 0 {
		records = append(records, []string{})
	}
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, h := range data.Headers {
			record[i] = safeCell(row[h])
		}
		records = append(records, record)
	}

	var buf bytes.Buffer
	if err := csv.NewWriter(&buf).WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func safeCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '+', '-':
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v
		}
		return "'" + v
	case '=', '@', '\t', '\r':
		return "'" + v
	}
	return v
}
