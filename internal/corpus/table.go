// Package corpus loads reference data (chronic conditions, treatment baskets) from CSV
// and XLSX spreadsheets.
package corpus

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported corpus format")

// table is a header row plus data rows, cells trimmed.
type table struct {
	header map[string]int
	rows   [][]string
}

func readTableFile(path string) (*table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return readTable(content, strings.ToLower(filepath.Ext(path)))
}

func readTable(content []byte, ext string) (*table, error) {
	var records [][]string
	var err error
	switch ext {
	case ".csv":
		records, err = readCSV(content)
	case ".xlsx":
		records, err = readXLSX(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	t := &table{header: make(map[string]int)}
	for i, name := range records[0] {
		key := headerKey(name)
		if _, dup := t.header[key]; !dup && key != "" {
			t.header[key] = i
		}
	}
	for _, rec := range records[1:] {
		row := make([]string, len(rec))
		blank := true
		for i, cell := range rec {
			row[i] = strings.TrimSpace(cell)
			if row[i] != "" {
				blank = false
			}
		}
		if !blank {
			t.rows = append(t.rows, row)
		}
	}
	return t, nil
}

func readCSV(content []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse CSV: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// headerKey folds a column title for lookup: lower case, single spaces, no punctuation
// other than letters and digits.
func headerKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// column returns the index of the first header matching one of names, or -1.
func (t *table) column(names ...string) int {
	for _, n := range names {
		if i, ok := t.header[headerKey(n)]; ok {
			return i
		}
	}
	return -1
}

// cell returns row[i], or "" when the column is absent or the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
