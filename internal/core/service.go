package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/JonMunkholm/szamlaconv/internal/logging"
	"golang.org/x/text/encoding"
)

// ServiceOptions configures a Service.
type ServiceOptions struct {
	FieldsPath       string
	TemplatePath     string
	TemplateEncoding encoding.Encoding
	OutputEncoding   encoding.Encoding
	Source           SourceOptions

	// History records completed exports. Nil keeps an in-memory log.
	History HistoryStore

	// Now is the clock used for computed date fields. Nil means time.Now.
	Now func() time.Time
}

// Service hosts one conversion session: the loaded field catalog and
// template, the last uploaded source, and the resolved table the operator
// is editing. All methods are safe for concurrent use; mutations are
// serialized.
type Service struct {
	opts ServiceOptions

	mu         sync.RWMutex
	catalog    *Catalog
	template   *Template
	source     *SourceTable
	sourceName string
	table      *ResolvedTable
}

// FieldView is the listing form of a catalog field.
type FieldView struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Value    string   `json:"value,omitempty"`
	Column   string   `json:"column,omitempty"`
	Options  []string `json:"options,omitempty"`
	Editable bool     `json:"editable"`
}

// TableView is a snapshot of the resolved table.
type TableView struct {
	Source   string        `json:"source"`
	Fields   []string      `json:"fields"`
	Rows     []ResolvedRow `json:"rows"`
	RowCount int           `json:"rowCount"`
}

// NewService loads the field definitions and the template from disk.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.History == nil {
		opts.History = NewMemoryHistory(DefaultHistoryLimit)
	}

	s := &Service{opts: opts}
	catalog, tmpl, err := s.loadDocuments()
	if err != nil {
		return nil, err
	}
	s.catalog = catalog
	s.template = tmpl
	return s, nil
}

func (s *Service) loadDocuments() (*Catalog, *Template, error) {
	catalog, err := ReadCatalogFile(s.opts.FieldsPath, s.opts.Now())
	if err != nil {
		return nil, nil, fmt.Errorf("load field definitions: %w", err)
	}
	tmpl, err := ReadTemplateFile(s.opts.TemplatePath, s.opts.TemplateEncoding)
	if err != nil {
		return nil, nil, fmt.Errorf("load template: %w", err)
	}
	return catalog, tmpl, nil
}

// OutputEncodingName returns the IANA name of the export charset.
func (s *Service) OutputEncodingName() string {
	if name := EncodingName(s.opts.OutputEncoding); name != "" {
		return name
	}
	return "UTF-8"
}

// Reload re-reads both documents. Operator field edits are lost; a loaded
// source is resolved again against the new catalog.
func (s *Service) Reload(ctx context.Context) error {
	catalog, tmpl, err := s.loadDocuments()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog = catalog
	s.template = tmpl
	if s.source != nil {
		s.table = Resolve(s.catalog, s.source)
	}

	logging.FromContext(ctx).Info("documents reloaded",
		"fields", catalog.Len(),
		"column_groups", len(tmpl.Groups),
	)
	return nil
}

// Fields lists the catalog in declaration order.
func (s *Service) Fields() []FieldView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields := s.catalog.Fields()
	views := make([]FieldView, len(fields))
	for i, f := range fields {
		v := FieldView{Name: f.Name(), Kind: f.Kind().String(), Editable: f.Editable()}
		switch field := f.(type) {
		case *MappingField:
			v.Column = field.Column
		case *TextField:
			v.Value = field.Value
			v.Options = append([]string(nil), field.Options...)
		default:
			v.Value, _ = fieldValue(f)
		}
		views[i] = v
	}
	return views
}

// Template returns the parsed template.
func (s *Service) Template() Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.template
}

// UpdateField changes an editable field. Rows already resolved keep their
// values until Resolve is called.
func (s *Service) UpdateField(ctx context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.catalog.Update(name, value); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("field updated", "field", name)
	return nil
}

// LoadSource reads a booking export and resolves it.
func (s *Service) LoadSource(ctx context.Context, name string, r io.Reader) (TableView, error) {
	counter := NewCountingReader(r)
	src, err := ReadSourceCSV(counter, s.opts.Source)
	if err != nil {
		return TableView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = src
	s.sourceName = name
	s.table = Resolve(s.catalog, src)

	s.logMissingColumns(ctx, src)
	logging.FromContext(ctx).Info("source loaded",
		"source", name,
		"rows", src.Len(),
		"columns", len(src.Columns),
		"bytes", counter.BytesRead,
	)
	return s.viewLocked(), nil
}

// logMissingColumns warns about mapping fields whose column the source lacks.
// They resolve to empty cells.
func (s *Service) logMissingColumns(ctx context.Context, src *SourceTable) {
	present := make(map[string]bool, len(src.Columns))
	for _, c := range src.Columns {
		present[c] = true
	}
	for _, f := range s.catalog.Fields() {
		if m, ok := f.(*MappingField); ok && !present[m.Column] {
			logging.FromContext(ctx).Warn("source column missing, field resolves empty",
				"field", m.Name(),
				"column", m.Column,
			)
		}
	}
}

// Resolve re-resolves the loaded source with the current field values.
// Cell edits are discarded.
func (s *Service) Resolve(ctx context.Context) (TableView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		return TableView{}, ErrNoData
	}
	s.table = Resolve(s.catalog, s.source)
	logging.FromContext(ctx).Info("source re-resolved", "rows", s.table.Len())
	return s.viewLocked(), nil
}

// Table returns a snapshot of the resolved table.
func (s *Service) Table() (TableView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		return TableView{}, ErrNoData
	}
	return s.viewLocked(), nil
}

func (s *Service) viewLocked() TableView {
	snapshot := s.table.Clone()
	return TableView{
		Source:   s.sourceName,
		Fields:   snapshot.Fields,
		Rows:     snapshot.Rows,
		RowCount: snapshot.Len(),
	}
}

// UpdateCell applies an operator edit at (row, field).
func (s *Service) UpdateCell(ctx context.Context, row int, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == nil {
		return ErrNoData
	}
	old, err := s.table.Cell(row, field)
	if err != nil {
		return err
	}
	if err := s.table.SetCell(row, field, value); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("cell updated",
		"row", row,
		"field", field,
		"old_value", old,
		"new_value", value,
	)
	return nil
}

// Export renders the invoicing import file and records it in the history.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	data, rows, sourceName, err := s.assemble()
	if err != nil {
		return nil, err
	}
	s.record(ctx, sourceName, rows, len(data), "")
	return data, nil
}

// ExportFile writes the import file to path. The file is written next to
// path under a temporary name and renamed into place, so a failed export
// never leaves a truncated file.
func (s *Service) ExportFile(ctx context.Context, path string) error {
	data, rows, sourceName, err := s.assemble()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrWrite, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename to %s: %w", ErrWrite, path, err)
	}

	s.record(ctx, sourceName, rows, len(data), path)
	return nil
}

func (s *Service) assemble() ([]byte, int, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		return nil, 0, "", ErrNoData
	}
	data, err := Assemble(s.template, s.table, s.opts.OutputEncoding)
	if err != nil {
		return nil, 0, "", err
	}
	return data, s.table.Len(), s.sourceName, nil
}

// record logs a completed export. History failures are logged, not returned:
// the export itself has already succeeded.
func (s *Service) record(ctx context.Context, sourceName string, rows, size int, dest string) {
	rec := ConversionRecord{
		SourceName:  sourceName,
		Rows:        rows,
		Encoding:    s.OutputEncodingName(),
		Bytes:       size,
		Destination: dest,
		ClientIP:    ClientIPFromContext(ctx),
		CreatedAt:   s.opts.Now(),
	}
	logger := logging.WithFields(ctx, "source", sourceName, "rows", rows, "bytes", size)
	if err := s.opts.History.Record(ctx, rec); err != nil {
		logger.Error("failed to record conversion history", "error", err)
		return
	}
	logger.Info("import file exported", "encoding", rec.Encoding)
}

// History returns the most recent exports.
func (s *Service) History(ctx context.Context, limit int) ([]ConversionRecord, error) {
	return s.opts.History.List(ctx, limit)
}

// ExportWork writes the resolved table, including edits, as a work file.
func (s *Service) ExportWork(ctx context.Context, w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		return ErrNoData
	}
	if err := WriteWorkFile(w, s.table); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("work file exported", "rows", s.table.Len())
	return nil
}

// ImportWork replaces the resolved table with the contents of a work file.
// The retained source is dropped, so Resolve is unavailable until the next
// LoadSource.
func (s *Service) ImportWork(ctx context.Context, name string, r io.Reader) (TableView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, dropped, err := ReadWorkFile(r, s.catalog)
	if err != nil {
		return TableView{}, err
	}

	s.table = table
	s.source = nil
	s.sourceName = name

	logger := logging.FromContext(ctx)
	if len(dropped) > 0 {
		logger.Warn("work file columns ignored", "columns", dropped)
	}
	logger.Info("work file imported", "source", name, "rows", table.Len())
	return s.viewLocked(), nil
}
