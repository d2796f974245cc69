package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "malformed document",
			err:         fmt.Errorf("fields.yaml: %w: missing section %q", ErrMalformedDocument, "mappings"),
			wantCode:    "DOC001",
			wantMessage: "The document is not in the expected format",
		},
		{
			name:        "missing required value",
			err:         fmt.Errorf("%w: constant %q has no value", ErrMissingRequiredValue, "Penznem"),
			wantCode:    "DOC002",
			wantMessage: "A field definition is missing its value",
		},
		{
			name:        "unknown field",
			err:         fmt.Errorf("%w: %q", ErrUnknownField, "Nope"),
			wantCode:    "FLD001",
			wantMessage: "No field with this name is declared",
		},
		{
			name:        "not editable",
			err:         fmt.Errorf("%w: %q is a constant field", ErrNotEditable, "Penznem"),
			wantCode:    "FLD002",
			wantMessage: "This field cannot be edited",
		},
		{
			name:        "encoding",
			err:         fmt.Errorf("%w: row 3, field %q: rune not supported", ErrEncoding, "Megjegyzes"),
			wantCode:    "ENC001",
			wantMessage: "A value contains characters the output charset cannot represent",
		},
		{
			name:        "read wraps deeper read error",
			err:         fmt.Errorf("template.csv: %w", fmt.Errorf("%w: open template: no such file", ErrRead)),
			wantCode:    "FILE001",
			wantMessage: "An input file could not be read",
		},
		{
			name:        "no data",
			err:         ErrNoData,
			wantCode:    "DATA001",
			wantMessage: "No booking export has been loaded",
		},
		{
			name:        "too many uploads",
			err:         ErrTooManyUploads,
			wantCode:    "RATE001",
			wantMessage: "Too many uploads in progress",
		},
		{
			name:        "file too large pattern",
			err:         errors.New("file too large: http: request body too large"),
			wantCode:    "FILE003",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:        "rate limit pattern",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("NO FILE PROVIDED"),
			wantCode:    "FILE004",
			wantMessage: "No file was selected",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapError_MissingValueBeatsMalformed(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrMalformedDocument, ErrMissingRequiredValue)
	if got := MapError(err).Code; got != "DOC002" {
		t.Errorf("MapError() code = %q, want DOC002", got)
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNoData)

	expected := "No booking export has been loaded (Code: DATA001). Upload a source file first"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"sentinel is user facing", fmt.Errorf("wrapped: %w", ErrRowOutOfRange), true},
		{"pattern is user facing", errors.New("no file provided"), true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
