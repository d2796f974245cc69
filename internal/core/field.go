package core

// FieldKind identifies how a field gets its output value.
type FieldKind int

const (
	KindMapping FieldKind = iota
	KindConstant
	KindText
	KindDate
)

// String returns the lowercase kind name used in listings and JSON.
func (k FieldKind) String() string {
	switch k {
	case KindMapping:
		return "mapping"
	case KindConstant:
		return "constant"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Field is one declared output column. It is implemented by *MappingField,
// *ConstantField, *TextField and *DateField; callers switch on the concrete
// type to reach the payload.
type Field interface {
	Name() string
	Kind() FieldKind
	Editable() bool
}

// MappingField copies a value from a named source column.
type MappingField struct {
	name   string
	Column string
}

func (f *MappingField) Name() string    { return f.name }
func (f *MappingField) Kind() FieldKind { return KindMapping }
func (f *MappingField) Editable() bool  { return false }

// ConstantField applies the same fixed value to every row.
type ConstantField struct {
	name  string
	Value string
}

func (f *ConstantField) Name() string    { return f.name }
func (f *ConstantField) Kind() FieldKind { return KindConstant }
func (f *ConstantField) Editable() bool  { return false }

// TextField holds an operator-editable value. Options is a hint list for
// editors and never takes part in resolution.
type TextField struct {
	name    string
	Value   string
	Options []string
}

func (f *TextField) Name() string    { return f.name }
func (f *TextField) Kind() FieldKind { return KindText }
func (f *TextField) Editable() bool  { return true }

// DateField holds an ISO calendar date. Computed dates are frozen when the
// catalog is loaded; the others are edited like text.
type DateField struct {
	name     string
	Value    string
	Computed bool
}

func (f *DateField) Name() string    { return f.name }
func (f *DateField) Kind() FieldKind { return KindDate }
func (f *DateField) Editable() bool  { return !f.Computed }

// NewMappingField declares a field copied from a source column.
func NewMappingField(name, column string) *MappingField {
	return &MappingField{name: name, Column: column}
}

// NewConstantField declares a fixed-value field.
func NewConstantField(name, value string) *ConstantField {
	return &ConstantField{name: name, Value: value}
}

// NewTextField declares an editable text field with optional hint values.
func NewTextField(name, value string, options ...string) *TextField {
	return &TextField{name: name, Value: value, Options: options}
}

// NewDateField declares an editable date field.
func NewDateField(name, value string) *DateField {
	return &DateField{name: name, Value: value}
}

// fieldValue returns the value a field resolves to independent of any source
// row. Mapping fields have none.
func fieldValue(f Field) (string, bool) {
	switch v := f.(type) {
	case *ConstantField:
		return v.Value, true
	case *TextField:
		return v.Value, true
	case *DateField:
		return v.Value, true
	default:
		return "", false
	}
}
