package core

// catalog.go loads the field-definition document into a Catalog.
//
// The document is YAML with three required mapping sections:
//
//	mappings:            # output field -> source column
//	  Vevo neve: Customer
//	constants:           # output field -> fixed value
//	  Penznem: HUF
//	editables:           # output field -> editable definition
//	  Fizetesi mod:
//	    default: atutalas
//	    options: [atutalas, keszpenz]
//	  Teljesites:
//	    type: date
//	    today: true
//	    plus: 8
//
// Declaration order (mappings, constants, editables, then document order
// within each section) is preserved for listings.

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the ISO calendar date format used for date fields.
const DateLayout = "2006-01-02"

// Section names of the field-definition document.
const (
	sectionMappings  = "mappings"
	sectionConstants = "constants"
	sectionEditables = "editables"
)

// Catalog is the set of declared fields, keyed by name and kept in
// declaration order. It owns the field values; edits go through Update.
type Catalog struct {
	order  []string
	fields map[string]Field
}

// NewCatalog builds a catalog from already constructed fields.
// Duplicate names are rejected.
func NewCatalog(fields ...Field) (*Catalog, error) {
	c := &Catalog{fields: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if err := c.add(f); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(f Field) error {
	if _, exists := c.fields[f.Name()]; exists {
		return fmt.Errorf("%w: duplicate field %q", ErrMalformedDocument, f.Name())
	}
	c.fields[f.Name()] = f
	c.order = append(c.order, f.Name())
	return nil
}

// Len returns the number of declared fields.
func (c *Catalog) Len() int { return len(c.order) }

// Names returns field names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Fields returns the fields in declaration order.
func (c *Catalog) Fields() []Field {
	result := make([]Field, len(c.order))
	for i, name := range c.order {
		result[i] = c.fields[name]
	}
	return result
}

// Field returns a field by name.
func (c *Catalog) Field(name string) (Field, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Update sets the current value of an editable text or date field.
// Resolution picks up the new value for every row resolved afterwards.
func (c *Catalog) Update(name, value string) error {
	f, ok := c.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if !f.Editable() {
		return fmt.Errorf("%w: %q is a %s field", ErrNotEditable, name, f.Kind())
	}

	switch v := f.(type) {
	case *TextField:
		v.Value = value
	case *DateField:
		v.Value = value
	}
	return nil
}

// ReadCatalogFile loads a field-definition document from disk.
func ReadCatalogFile(path string, now time.Time) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open field definitions: %w", ErrRead, err)
	}
	defer f.Close()

	c, err := LoadCatalog(f, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// LoadCatalog parses a field-definition document. Computed date fields are
// evaluated against now. The first structural problem found is returned;
// there is no partial catalog.
func LoadCatalog(r io.Reader, now time.Time) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty field definitions", ErrMalformedDocument)
		}
		return nil, fmt.Errorf("%w: parse field definitions: %v", ErrMalformedDocument, err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	root = deref(root)
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrMalformedDocument)
	}

	sections := make(map[string]*yaml.Node, 3)
	for i := 0; i+1 < len(root.Content); i += 2 {
		sections[root.Content[i].Value] = deref(root.Content[i+1])
	}
	for _, name := range []string{sectionMappings, sectionConstants, sectionEditables} {
		node, ok := sections[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing section %q", ErrMalformedDocument, name)
		}
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: section %q must be a mapping", ErrMalformedDocument, name)
		}
	}

	c := &Catalog{fields: make(map[string]Field)}

	err := eachEntry(sections[sectionMappings], func(name string, value *yaml.Node) error {
		column, ok := scalar(value)
		if !ok || column == "" {
			return fmt.Errorf("%w: mapping %q has no source column", ErrMissingRequiredValue, name)
		}
		return c.add(&MappingField{name: name, Column: column})
	})
	if err != nil {
		return nil, err
	}

	err = eachEntry(sections[sectionConstants], func(name string, value *yaml.Node) error {
		v, ok := scalar(value)
		if !ok || v == "" {
			return fmt.Errorf("%w: constant %q has no value", ErrMissingRequiredValue, name)
		}
		return c.add(&ConstantField{name: name, Value: v})
	})
	if err != nil {
		return nil, err
	}

	err = eachEntry(sections[sectionEditables], func(name string, value *yaml.Node) error {
		f, err := buildEditable(name, value, now)
		if err != nil {
			return err
		}
		return c.add(f)
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// buildEditable constructs a text or date field from an editables entry.
func buildEditable(name string, node *yaml.Node, now time.Time) (Field, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: editable %q must be a mapping", ErrMalformedDocument, name)
	}

	attrs := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		attrs[node.Content[i].Value] = deref(node.Content[i+1])
	}
	attr := func(key string) string {
		if n, ok := attrs[key]; ok {
			if v, ok := scalar(n); ok {
				return v
			}
		}
		return ""
	}
	initial := attr("default")
	if initial == "" {
		initial = attr("value")
	}

	if strings.EqualFold(attr("type"), "date") {
		if !isTruthy(attr("today")) {
			return &DateField{name: name, Value: initial}, nil
		}
		days := 0
		if plus := strings.TrimSpace(attr("plus")); plus != "" {
			n, err := strconv.Atoi(plus)
			if err != nil {
				return nil, fmt.Errorf("%w: date %q: plus %q is not an integer", ErrMalformedDocument, name, plus)
			}
			days = n
		}
		return &DateField{
			name:     name,
			Value:    now.AddDate(0, 0, days).Format(DateLayout),
			Computed: true,
		}, nil
	}

	if initial == "" {
		return nil, fmt.Errorf("%w: text %q has no default", ErrMissingRequiredValue, name)
	}

	var options []string
	if n, ok := attrs["options"]; ok && !isNull(n) {
		if n.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w: text %q: options must be a list", ErrMalformedDocument, name)
		}
		for _, item := range n.Content {
			if v, ok := scalar(deref(item)); ok {
				options = append(options, v)
			}
		}
	}

	return &TextField{name: name, Value: initial, Options: options}, nil
}

// eachEntry walks a mapping node in document order.
func eachEntry(node *yaml.Node, fn func(name string, value *yaml.Node) error) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, deref(node.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// deref follows YAML aliases to the anchored node.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// scalar returns the text of a non-null scalar node.
func scalar(n *yaml.Node) (string, bool) {
	if n == nil || n.Kind != yaml.ScalarNode || isNull(n) {
		return "", false
	}
	return n.Value, true
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// isTruthy accepts the boolean spellings operators tend to write in YAML.
func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1", "on":
		return true
	default:
		return false
	}
}
