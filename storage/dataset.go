package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"estate-scraper/models"
)

// ReadTable loads a tab-separated dataset. The first record is the header.
// A missing file yields an empty table with the unified header.
func ReadTable(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return models.NewListingTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	r := newReader(f)

	header, err := r.Read()
	if err == io.EOF {
		return models.NewListingTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header of %q: %w", path, err)
	}

	table := models.NewTable(renameLegacyColumns(header))
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read %q: %w", path, err)
		}
		table.AppendValues(record)
	}
	return table, nil
}

// WriteTable writes the table to path as tab-separated values. The file is
// replaced atomically; intermediate directories are created automatically.
func WriteTable(path string, table *models.Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("dataset: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("dataset: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Comma = '\t'

	if err := w.Write(table.Header()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("dataset: write header: %w", err)
	}
	for i := 0; i < table.Len(); i++ {
		if err := w.Write(table.Row(i)); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("dataset: write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("dataset: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("dataset: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("dataset: replace %q: %w", path, err)
	}
	return nil
}

// MergeAndPersist appends the rows of table to the dataset at path and
// writes the result back. Existing rows keep their positions and no
// deduplication happens here.
func MergeAndPersist(path string, table *models.Table) (*models.Table, error) {
	merged, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	merged.Concat(table)

	if err := WriteTable(path, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// legacyColumns maps header names of older datasets to the unified ones.
var legacyColumns = map[string]string{
	"SHAPE": "location",
}

// renameLegacyColumns rewrites legacy header names in place unless the
// unified name is already present.
func renameLegacyColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}
	for i, name := range header {
		if unified, ok := legacyColumns[name]; ok && !present[unified] {
			header[i] = unified
			present[unified] = true
		}
	}
	return header
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}
