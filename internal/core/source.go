package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// SourceRow is one row of the booking export, keyed by column name.
type SourceRow map[string]string

// Lookup returns the cell for column, or "" when the row has no such column.
// Missing columns are expected: exports vary between versions and a mapping
// to an absent column resolves to an empty cell rather than an error.
func (r SourceRow) Lookup(column string) string {
	return r[column]
}

// SourceTable is the tabular input handed to the resolver.
type SourceTable struct {
	Columns []string
	Rows    []SourceRow
}

// Len returns the number of data rows.
func (t *SourceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// SourceOptions controls how a source CSV export is read.
type SourceOptions struct {
	// Delimiter separates cells. Zero means ','.
	Delimiter rune

	// Encoding decodes the file. Nil means UTF-8, with invalid bytes replaced.
	Encoding encoding.Encoding

	// RawHeader keeps header cells as written apart from surrounding
	// whitespace. Work files use it so field names survive a round trip.
	RawHeader bool
}

func (o SourceOptions) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// ReadSourceCSV reads a CSV export of the booking sheet. The first record is
// the header. Rows shorter than the header leave the trailing columns absent
// and cells beyond the header are dropped. Cell values are kept verbatim.
func ReadSourceCSV(r io.Reader, opts SourceOptions) (*SourceTable, error) {
	var in io.Reader = NewBOMSkippingReader(r)
	if opts.Encoding != nil {
		in = transform.NewReader(in, opts.Encoding.NewDecoder())
	} else {
		in = NewUTF8Sanitizer(in)
	}

	cr := csv.NewReader(in)
	cr.Comma = opts.delimiter()
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: source has no header row", ErrMalformedDocument)
		}
		return nil, sourceReadError(err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if opts.RawHeader {
			columns[i] = strings.TrimSpace(h)
		} else {
			columns[i] = CleanCell(h)
		}
	}

	table := &SourceTable{Columns: columns}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, sourceReadError(err)
		}

		row := make(SourceRow, len(columns))
		for i, col := range columns {
			if col == "" || i >= len(record) {
				continue
			}
			row[col] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func sourceReadError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: invalid csv at line %d: %w", ErrMalformedDocument, parseErr.Line, parseErr.Err)
	}
	return fmt.Errorf("%w: read source: %w", ErrRead, err)
}

// CleanCell removes common spreadsheet export artifacts from a header cell:
// surrounding whitespace, an Excel formula prefix (="..."), and surrounding
// quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
