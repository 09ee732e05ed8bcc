// Package dataset loads ranking candidates from delimited text files.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/homerank/schema"
)

// utf8BOM is stripped from the first header cell when present.
const utf8BOM = "\ufeff"

// Loaded is a parsed dataset plus the fingerprint of its raw bytes.
type Loaded struct {
	Dataset     *schema.Dataset
	Fingerprint string
}

// LoadCSV reads a CSV file whose idColumn identifies each item.
func LoadCSV(path, idColumn string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	ds, err := Parse(bytes.NewReader(data), path, idColumn)
	if err != nil {
		return nil, err
	}
	return &Loaded{Dataset: ds, Fingerprint: Fingerprint(data)}, nil
}

// Fingerprint returns the hex SHA-256 of raw dataset bytes.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// Parse reads CSV records from r. Header names are trimmed; every row must
// have as many fields as the header.
func Parse(r io.Reader, source, idColumn string) (*schema.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s has no header", schema.ErrEmptyDataset, source)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse header of %s: %v", schema.ErrInvalidInput, source, err)
	}

	columns := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimSpace(strings.TrimPrefix(name, utf8BOM))
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q in %s", schema.ErrInvalidInput, name, source)
		}
		seen[name] = struct{}{}
		columns[i] = name
	}

	ds := &schema.Dataset{Source: source, Columns: columns}
	if !ds.HasColumn(idColumn) {
		return nil, fmt.Errorf("%w: identifier column %q not found in %s", schema.ErrMissingColumn, idColumn, source)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", schema.ErrInvalidInput, source, err)
		}
		cells := make(map[string]string, len(columns))
		for i, col := range columns {
			cells[col] = strings.TrimSpace(record[i])
		}
		ds.Items = append(ds.Items, schema.Item{
			ID:    cells[idColumn],
			Index: len(ds.Items),
			Cells: cells,
		})
	}
	return ds, nil
}
