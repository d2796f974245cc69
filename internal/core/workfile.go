package core

// workfile.go saves and restores a resolved table as a plain UTF-8 CSV so
// operators can correct cells in a spreadsheet before the final export.
// The header row holds the field names.

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteWorkFile writes table as comma-separated UTF-8 with a header row.
func WriteWorkFile(w io.Writer, table *ResolvedTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Fields); err != nil {
		return fmt.Errorf("%w: work file header: %w", ErrWrite, err)
	}

	record := make([]string, len(table.Fields))
	for _, row := range table.Rows {
		for i, f := range table.Fields {
			record[i] = row.Lookup(f)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%w: work file row: %w", ErrWrite, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: work file: %w", ErrWrite, err)
	}
	return nil
}

// ReadWorkFile reads a work file back into a table shaped by the catalog:
// every catalog field is present in every row, columns that are not catalog
// fields are dropped, and fields missing from the file resolve to "".
// The second return value lists the dropped columns.
func ReadWorkFile(r io.Reader, c *Catalog) (*ResolvedTable, []string, error) {
	src, err := ReadSourceCSV(r, SourceOptions{RawHeader: true})
	if err != nil {
		return nil, nil, err
	}

	var dropped []string
	for _, col := range src.Columns {
		if _, ok := c.Field(col); !ok && col != "" {
			dropped = append(dropped, col)
		}
	}

	names := c.Names()
	table := &ResolvedTable{
		Fields: names,
		Rows:   make([]ResolvedRow, 0, src.Len()),
	}
	for _, srcRow := range src.Rows {
		row := make(ResolvedRow, len(names))
		for _, name := range names {
			row[name] = srcRow.Lookup(name)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, dropped, nil
}
