package core

// # Error Codes Reference
//
// Errors shown to operators carry a short code they can quote when asking
// for help. Codes are grouped by category:
//
// # Document Errors (DOC001-DOC099)
//
//	DOC001 - Malformed document: field definitions, template, or source file is not in the expected shape
//	         Action: Check the file against the documented format
//	DOC002 - Missing value: a field definition lacks its source column, value, or default
//	         Action: Fill in the value named in the message
//
// # Field Errors (FLD001-FLD099)
//
//	FLD001 - Unknown field: no field with this name is declared
//	FLD002 - Not editable: mapping, constant, and computed date fields cannot be edited
//	FLD003 - Row out of range: the row index does not exist in the loaded data
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - Read failure: an input file could not be opened or decoded
//	FILE002 - Write failure: the output file could not be written
//	FILE003 - File too large (pattern: "file too large", "request body too large")
//	FILE004 - No file provided (pattern: "no file provided")
//
// # Encoding Errors (ENC001-ENC099)
//
//	ENC001 - A value contains characters the output charset cannot represent
//
// # Data Errors (DATA001-DATA099)
//
//	DATA001 - No source data loaded yet
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Too many requests or concurrent uploads
//
// # Default (ERR000)
//
//	ERR000 - Anything not covered above

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage is an operator-facing description of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

// sentinelMessages maps the package's error values to messages. Order
// matters: the first match wins.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrMissingRequiredValue, UserMessage{
		Message: "A field definition is missing its value",
		Action:  "Fill in the source column, value, or default named in the details",
		Code:    "DOC002",
	}},
	{ErrMalformedDocument, UserMessage{
		Message: "The document is not in the expected format",
		Action:  "Check the field definitions, template, or source file named in the details",
		Code:    "DOC001",
	}},
	{ErrUnknownField, UserMessage{
		Message: "No field with this name is declared",
		Action:  "Use one of the names listed under fields",
		Code:    "FLD001",
	}},
	{ErrNotEditable, UserMessage{
		Message: "This field cannot be edited",
		Action:  "Change mapping and constant fields in the field definitions file",
		Code:    "FLD002",
	}},
	{ErrRowOutOfRange, UserMessage{
		Message: "The row does not exist",
		Action:  "Reload the data and try again",
		Code:    "FLD003",
	}},
	{ErrEncoding, UserMessage{
		Message: "A value contains characters the output charset cannot represent",
		Action:  "Edit the cell named in the details or choose another output encoding",
		Code:    "ENC001",
	}},
	{ErrRead, UserMessage{
		Message: "An input file could not be read",
		Action:  "Check that the file exists and uses the configured encoding",
		Code:    "FILE001",
	}},
	{ErrWrite, UserMessage{
		Message: "The output file could not be written",
		Action:  "Check the destination path and free disk space",
		Code:    "FILE002",
	}},
	{ErrNoData, UserMessage{
		Message: "No booking export has been loaded",
		Action:  "Upload a source file first",
		Code:    "DATA001",
	}},
	{ErrTooManyUploads, UserMessage{
		Message: "Too many uploads in progress",
		Action:  "Please wait a moment and try again",
		Code:    "RATE001",
	}},
}

// errorPatterns catch errors raised outside this package, matched
// case-insensitively against the error text.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"file too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the export into smaller files",
		Code:    "FILE003",
	}},
	{"request body too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the export into smaller files",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select a file to upload",
		Code:    "FILE004",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment and try again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error into a message suitable for operators.
// Returns a zero UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
