package core

import "errors"

// Document and boundary errors. Callers match them with errors.Is; the
// wrapped message carries the field, line, or path that failed.
var (
	// ErrMalformedDocument is a structural problem in the field-definition
	// document, the template, or the source table.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrMissingRequiredValue is a definition entry without its required value.
	ErrMissingRequiredValue = errors.New("missing required value")

	// ErrRead is an open, read, or decode failure on an input document.
	ErrRead = errors.New("read error")

	// ErrWrite is an I/O failure on the output destination.
	ErrWrite = errors.New("write error")

	// ErrEncoding is a value that cannot be represented in the output encoding,
	// or an encoding name that is not known.
	ErrEncoding = errors.New("encoding error")
)

// Errors raised by edits applied between resolution and assembly.
var (
	ErrUnknownField  = errors.New("unknown field")
	ErrNotEditable   = errors.New("field is not editable")
	ErrRowOutOfRange = errors.New("row out of range")
	ErrNoData        = errors.New("no source data loaded")
)
