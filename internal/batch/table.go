package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyFile is returned when the table has no header row at all
	ErrEmptyFile = errors.New("table file is empty")

	// ErrNoRows is returned when the table has a header but no row with
	// at least one non-blank cell
	ErrNoRows = errors.New("table contains no valid data rows")
)

// Row is one data line of the question table: question, options and answer
// in column order. Cells are kept verbatim, blank cells as "".
type Row []string

// Blank reports whether every cell is empty after trimming whitespace
func (r Row) Blank() bool {
	for _, cell := range r {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Options configures how a table file is parsed
type Options struct {
	// Comma is the field delimiter. Zero selects a tab for .tsv files and a
	// comma for everything else.
	Comma rune
}

// ReadTable reads a delimited question table. The first record is the
// header and is not returned. Fully blank rows are dropped. Supported
// inputs:
//   - comma separated: "Question,A,B,C,D,Answer"
//   - tab separated when the file ends in .tsv
//   - quoted cells with embedded delimiters or newlines
func ReadTable(filename string, opts *Options) ([]Row, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	comma := ','
	if opts != nil && opts.Comma != 0 {
		comma = opts.Comma
	} else if strings.EqualFold(filepath.Ext(filename), ".tsv") {
		comma = '\t'
	}

	return parseTable(f, comma)
}

func parseTable(r io.Reader, comma rune) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // rows may be ragged
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		row := Row(record)
		if row.Blank() {
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	return rows, nil
}
