package core

import "fmt"

// ResolvedRow maps field names to output values for one source row.
type ResolvedRow map[string]string

// Lookup returns the value for name, or "" when the row has no such cell.
// Template tokens that do not name a field render as empty cells through
// this lookup; assembly never fails on them.
func (r ResolvedRow) Lookup(name string) string {
	return r[name]
}

// ResolvedTable holds the per-row output values, in source row order.
// Fields lists every field name present in each row.
type ResolvedTable struct {
	Fields []string
	Rows   []ResolvedRow
}

// Resolve materializes every catalog field for every source row. Mapping
// fields copy their column (absent → ""); constant, text and date fields
// take the catalog's current value, identical for every row. Resolve never
// fails and never drops or adds rows.
func Resolve(c *Catalog, src *SourceTable) *ResolvedTable {
	fields := c.Fields()
	table := &ResolvedTable{
		Fields: c.Names(),
		Rows:   make([]ResolvedRow, 0, src.Len()),
	}
	if src == nil {
		return table
	}

	for _, srcRow := range src.Rows {
		row := make(ResolvedRow, len(fields))
		for _, f := range fields {
			switch v := f.(type) {
			case *MappingField:
				row[v.Name()] = srcRow.Lookup(v.Column)
			default:
				value, _ := fieldValue(f)
				row[f.Name()] = value
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// Len returns the number of rows.
func (t *ResolvedTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cell returns the value at (row, field).
func (t *ResolvedTable) Cell(row int, field string) (string, error) {
	if err := t.check(row, field); err != nil {
		return "", err
	}
	return t.Rows[row][field], nil
}

// SetCell overwrites the value at (row, field). Operator edits made this way
// are carried into assembly unchanged.
func (t *ResolvedTable) SetCell(row int, field, value string) error {
	if err := t.check(row, field); err != nil {
		return err
	}
	t.Rows[row][field] = value
	return nil
}

func (t *ResolvedTable) check(row int, field string) error {
	if row < 0 || row >= t.Len() {
		return fmt.Errorf("%w: %d (table has %d rows)", ErrRowOutOfRange, row, t.Len())
	}
	if !t.hasField(field) {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

func (t *ResolvedTable) hasField(field string) bool {
	for _, f := range t.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (t *ResolvedTable) Clone() *ResolvedTable {
	if t == nil {
		return nil
	}
	out := &ResolvedTable{
		Fields: append([]string(nil), t.Fields...),
		Rows:   make([]ResolvedRow, len(t.Rows)),
	}
	for i, row := range t.Rows {
		cp := make(ResolvedRow, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}
