package core

// assembler.go renders a template and a resolved table into the import file.
//
// Layout, all lines terminated by '\n':
//
//	<header lines, verbatim>
//	<column group lines, verbatim>
//	1<cell;cell;...;>          <- first group of row 1, row number without separator
//	<cell;cell;...;>           <- remaining groups of row 1
//	2<cell;...;>
//	...
//
// The row number runs straight into the first cell. The invoicing system's
// importer is fed exactly this shape, so it is reproduced as is.

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/text/encoding"
)

const lineTerminator = "\n"

// Assemble renders the import file in enc. A nil enc emits UTF-8.
// Every value must be representable in enc; the first one that is not
// fails the whole document with ErrEncoding, as does a charset that does not
// encode ASCII as itself.
func Assemble(t *Template, table *ResolvedTable, enc encoding.Encoding) ([]byte, error) {
	if enc != nil && !asciiCompatible(enc) {
		return nil, fmt.Errorf("%w: output charset must encode ASCII as itself", ErrEncoding)
	}
	w := newEncodingWriter(enc)

	for i, line := range t.Header {
		if err := w.line(line); err != nil {
			return nil, fmt.Errorf("%w: header line %d: %w", ErrEncoding, i+1, err)
		}
	}
	for i, g := range t.Groups {
		if err := w.line(g.Line()); err != nil {
			return nil, fmt.Errorf("%w: column group %d: %w", ErrEncoding, i+1, err)
		}
	}

	for i := 0; i < table.Len(); i++ {
		row := table.Rows[i]
		w.raw(strconv.Itoa(i + 1))
		for _, g := range t.Groups {
			for _, token := range g {
				if err := w.cell(row.Lookup(token)); err != nil {
					return nil, fmt.Errorf("%w: row %d, field %q: %w", ErrEncoding, i+1, token, err)
				}
			}
			w.raw(lineTerminator)
		}
	}

	return w.buf.Bytes(), nil
}

// AssembleTo renders the import file and writes it to dst. Nothing is written
// when rendering fails.
func AssembleTo(dst io.Writer, t *Template, table *ResolvedTable, enc encoding.Encoding) error {
	data, err := Assemble(t, table, enc)
	if err != nil {
		return err
	}
	if _, err := dst.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// WriteFile renders the import file and creates or overwrites path with it.
// A failed write may leave a partial file behind; callers that need an
// all-or-nothing result write to a temporary path and rename.
func WriteFile(path string, t *Template, table *ResolvedTable, enc encoding.Encoding) error {
	data, err := Assemble(t, table, enc)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrWrite, path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %w", ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrWrite, path, err)
	}
	return nil
}

// encodingWriter accumulates output already converted to the target charset.
type encodingWriter struct {
	buf bytes.Buffer
	enc *encoding.Encoder
}

func newEncodingWriter(enc encoding.Encoding) *encodingWriter {
	w := &encodingWriter{}
	if enc != nil {
		w.enc = enc.NewEncoder()
	}
	return w
}

func (w *encodingWriter) encode(s string) error {
	if w.enc == nil {
		w.buf.WriteString(s)
		return nil
	}
	out, err := w.enc.String(s)
	if err != nil {
		return err
	}
	w.buf.WriteString(out)
	return nil
}

// raw appends ASCII-only text that needs no conversion.
func (w *encodingWriter) raw(s string) {
	w.buf.WriteString(s)
}

func (w *encodingWriter) line(s string) error {
	if err := w.encode(s); err != nil {
		return err
	}
	w.raw(lineTerminator)
	return nil
}

func (w *encodingWriter) cell(s string) error {
	if err := w.encode(s); err != nil {
		return err
	}
	w.raw(Separator)
	return nil
}
