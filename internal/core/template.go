package core

// template.go parses the invoicing-system import template.
//
// A template is a run of lines that start with the marker ';':
//
//	;;literal header line, copied to the output as is
//	;ID;Field A;Field B      <- column group: one output line per source row
//	;ID;Field C
//	anything else ends the template
//
// Parsing stops at the first line without the marker (a blank line counts)
// or at the end of input. Anything after it is ignored.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const (
	// Separator delimits tokens in template lines and cells in the output.
	Separator = ";"

	headerMarker = Separator + Separator
)

// ColumnGroup is the ordered list of field-name tokens of one template line.
// The first token is conventionally a label column.
type ColumnGroup []string

// Line returns the template line the group was parsed from.
func (g ColumnGroup) Line() string {
	return Separator + strings.Join(g, Separator)
}

// Template is a parsed output template.
type Template struct {
	Header []string
	Groups []ColumnGroup
}

// Tokens returns every distinct token across all groups, in first-seen order.
func (t *Template) Tokens() []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, g := range t.Groups {
		for _, tok := range g {
			if !seen[tok] {
				seen[tok] = true
				tokens = append(tokens, tok)
			}
		}
	}
	return tokens
}

// ParseTemplate reads template lines from r. Tokens are not checked against
// any catalog; unknown names render as empty cells during assembly.
func ParseTemplate(r io.Reader) (*Template, error) {
	br := bufio.NewReader(r)
	t := &Template{}

	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: read template: %w", ErrRead, err)
		}
		atEOF := err != nil

		line = strings.TrimRight(line, "\r\n")
		if !strings.HasPrefix(line, Separator) {
			break
		}

		if strings.HasPrefix(line, headerMarker) {
			t.Header = append(t.Header, line)
		} else {
			group := strings.Split(strings.TrimPrefix(line, Separator), Separator)
			t.Groups = append(t.Groups, ColumnGroup(group))
		}

		if atEOF {
			break
		}
	}

	return t, nil
}

// ReadTemplateFile opens and parses a template stored in enc. A nil enc
// reads the file as UTF-8 and fails with ErrRead when it is not valid UTF-8.
func ReadTemplateFile(path string, enc encoding.Encoding) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open template: %w", ErrRead, err)
	}
	defer f.Close()

	var r io.Reader = NewBOMSkippingReader(f)
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	} else {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: read template: %w", ErrRead, err)
		}
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: template %s is not valid UTF-8", ErrRead, path)
		}
		r = bytes.NewReader(data)
	}

	t, err := ParseTemplate(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
