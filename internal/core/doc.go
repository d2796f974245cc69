// Package core converts a booking export into an invoicing-system import file.
//
// The package has no transport dependencies and is used by the HTTP server
// and the command-line converter alike.
//
// # Pipeline
//
//	field definitions (YAML) --LoadCatalog--> Catalog --+
//	                                                    +--Resolve--> ResolvedTable --+
//	source export (CSV) ----ReadSourceCSV--> SourceTable+                             +--Assemble--> import file
//	template (;-lines) -----ParseTemplate--> Template ----------------------------------+
//
// A [Catalog] declares the output fields. Each [Field] is one of
// [MappingField] (copied from a source column), [ConstantField],
// [TextField] (operator-editable) or [DateField] (computed at load time as
// today plus an offset, or operator-editable).
//
// [Resolve] produces one [ResolvedRow] per source row with every field
// present. Lookups are tolerant: a mapping to a column the export lacks and a
// template token that names no field both yield an empty cell.
//
// [Assemble] writes the template's header lines and column-group lines, then
// one line per column group for each row, prefixed by the 1-based row number,
// and encodes the result in the configured charset (ISO-8859-2 by default).
//
// # Sessions
//
// [Service] holds the state an operator works on between upload and export:
// field edits via [Service.UpdateField], cell edits via [Service.UpdateCell],
// work-file round trips, and the export history kept by a [HistoryStore].
//
// # Error Handling
//
// Functions return errors wrapping one of the sentinel values in errors.go;
// [MapError] turns them into operator-facing messages with support codes.
package core
