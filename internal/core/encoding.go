package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// DefaultEncoding is the character set the invoicing system's CSV import
// expects. Templates are stored in it as well.
const DefaultEncoding = "ISO-8859-2"

// LookupEncoding resolves an IANA charset name such as "ISO-8859-2",
// "windows-1250" or "UTF-8". An empty name selects DefaultEncoding.
// Charsets that do not encode ASCII as itself are rejected with ErrEncoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultEncoding
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown charset %q", ErrEncoding, name)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: unsupported charset %q", ErrEncoding, name)
	}
	if !asciiCompatible(enc) {
		return nil, fmt.Errorf("%w: charset %q does not encode ASCII as itself", ErrEncoding, name)
	}
	return enc, nil
}

// asciiProbe covers the bytes the assembler writes without encoding.
const asciiProbe = "0123456789;\n"

// asciiCompatible reports whether enc leaves ASCII unchanged. Row numbers,
// separators and line terminators are written as raw bytes, so any other
// charset (UTF-16, UTF-32) would mix two encodings in one file.
func asciiCompatible(enc encoding.Encoding) bool {
	out, err := enc.NewEncoder().String(asciiProbe)
	return err == nil && out == asciiProbe
}

// EncodingName returns the canonical IANA name of enc, or "" when it has none.
func EncodingName(enc encoding.Encoding) string {
	if enc == nil {
		return ""
	}
	name, err := ianaindex.IANA.Name(enc)
	if err != nil {
		return ""
	}
	return name
}
