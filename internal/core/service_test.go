package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"
)

const testTemplate = ";;Szamla import\n;ID;Vevo neve;Osszeg;Penznem\n;ID;Fizetesi mod;Teljesites\nvege\n"

const testExport = "Customer,Amount\nKovacs Kft,12000\nNagy Bt,8500\n"

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()

	fields := filepath.Join(dir, "fields.yaml")
	template := filepath.Join(dir, "template.csv")
	if err := os.WriteFile(fields, []byte(testFieldsYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(template, []byte(testTemplate), 0o644); err != nil {
		t.Fatal(err)
	}

	svc, err := NewService(ServiceOptions{
		FieldsPath:     fields,
		TemplatePath:   template,
		OutputEncoding: charmap.ISO8859_2,
		Now:            func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, dir
}

func loadTestExport(t *testing.T, svc *Service) TableView {
	t.Helper()
	view, err := svc.LoadSource(context.Background(), "bookings.csv", strings.NewReader(testExport))
	if err != nil {
		t.Fatalf("LoadSource() error = %v", err)
	}
	return view
}

func TestNewService_Errors(t *testing.T) {
	dir := t.TempDir()
	fields := filepath.Join(dir, "fields.yaml")
	os.WriteFile(fields, []byte(testFieldsYAML), 0o644)

	tests := []struct {
		name    string
		opts    ServiceOptions
		wantErr error
	}{
		{"missing fields file", ServiceOptions{FieldsPath: filepath.Join(dir, "none.yaml")}, ErrRead},
		{"missing template", ServiceOptions{FieldsPath: fields, TemplatePath: filepath.Join(dir, "none.csv")}, ErrRead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(tt.opts); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewService() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_Fields(t *testing.T) {
	svc, _ := newTestService(t)
	fields := svc.Fields()

	if len(fields) != 7 {
		t.Fatalf("Fields() returned %d, want 7", len(fields))
	}
	if f := fields[0]; f.Name != "Vevo neve" || f.Kind != "mapping" || f.Column != "Customer" || f.Editable {
		t.Errorf("Fields()[0] = %+v", f)
	}
	if f := fields[4]; f.Name != "Fizetesi mod" || f.Kind != "text" || f.Value != "atutalas" || len(f.Options) != 3 {
		t.Errorf("Fields()[4] = %+v", f)
	}
	if f := fields[5]; f.Value != "2024-04-02" || f.Editable {
		t.Errorf("Fields()[5] = %+v", f)
	}
}

func TestService_NoDataYet(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Table(); !errors.Is(err, ErrNoData) {
		t.Errorf("Table() error = %v, want ErrNoData", err)
	}
	if _, err := svc.Resolve(ctx); !errors.Is(err, ErrNoData) {
		t.Errorf("Resolve() error = %v, want ErrNoData", err)
	}
	if _, err := svc.Export(ctx); !errors.Is(err, ErrNoData) {
		t.Errorf("Export() error = %v, want ErrNoData", err)
	}
	if err := svc.ExportFile(ctx, filepath.Join(dir, "out.csv")); !errors.Is(err, ErrNoData) {
		t.Errorf("ExportFile() error = %v, want ErrNoData", err)
	}
	if err := svc.UpdateCell(ctx, 0, "Penznem", "EUR"); !errors.Is(err, ErrNoData) {
		t.Errorf("UpdateCell() error = %v, want ErrNoData", err)
	}
	if err := svc.ExportWork(ctx, &bytes.Buffer{}); !errors.Is(err, ErrNoData) {
		t.Errorf("ExportWork() error = %v, want ErrNoData", err)
	}
}

func TestService_LoadEditExport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := ContextWithClientIP(context.Background(), "192.0.2.1")

	view := loadTestExport(t, svc)
	if view.RowCount != 2 || view.Source != "bookings.csv" {
		t.Fatalf("LoadSource() view = %+v", view)
	}

	if err := svc.UpdateCell(ctx, 1, "Osszeg", "9000"); err != nil {
		t.Fatalf("UpdateCell() error = %v", err)
	}

	data, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	want := ";;Szamla import\n" +
		";ID;Vevo neve;Osszeg;Penznem\n" +
		";ID;Fizetesi mod;Teljesites\n" +
		"1;Kovacs Kft;12000;HUF;\n" +
		";atutalas;2024-04-02;\n" +
		"2;Nagy Bt;9000;HUF;\n" +
		";atutalas;2024-04-02;\n"
	if string(data) != want {
		t.Errorf("Export() =\n%s\nwant\n%s", data, want)
	}

	records, err := svc.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("History() returned %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.SourceName != "bookings.csv" || rec.Rows != 2 || rec.Bytes != len(data) ||
		rec.Encoding != "ISO-8859-2" || rec.ClientIP != "192.0.2.1" {
		t.Errorf("History()[0] = %+v", rec)
	}
}

func TestService_UpdateFieldThenResolve(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	loadTestExport(t, svc)

	if err := svc.UpdateCell(ctx, 0, "Osszeg", "1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateField(ctx, "Fizetesi mod", "keszpenz"); err != nil {
		t.Fatalf("UpdateField() error = %v", err)
	}

	view, _ := svc.Table()
	if got := view.Rows[0]["Fizetesi mod"]; got != "atutalas" {
		t.Errorf("before Resolve, Fizetesi mod = %q, want atutalas", got)
	}

	view, err := svc.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := view.Rows[0]["Fizetesi mod"]; got != "keszpenz" {
		t.Errorf("after Resolve, Fizetesi mod = %q, want keszpenz", got)
	}
	if got := view.Rows[0]["Osszeg"]; got != "12000" {
		t.Errorf("after Resolve, Osszeg = %q, want the source value 12000", got)
	}

	if err := svc.UpdateField(ctx, "Penznem", "EUR"); !errors.Is(err, ErrNotEditable) {
		t.Errorf("UpdateField(constant) error = %v, want ErrNotEditable", err)
	}
}

func TestService_TableIsSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	view := loadTestExport(t, svc)

	view.Rows[0]["Penznem"] = "EUR"

	again, _ := svc.Table()
	if got := again.Rows[0]["Penznem"]; got != "HUF" {
		t.Errorf("Penznem = %q, want HUF; views must not alias service state", got)
	}
}

func TestService_ExportEncodingError(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	loadTestExport(t, svc)

	if err := svc.UpdateCell(ctx, 0, "Vevo neve", "Ünnep € Kft"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Export(ctx); !errors.Is(err, ErrEncoding) {
		t.Fatalf("Export() error = %v, want ErrEncoding", err)
	}
	if records, _ := svc.History(ctx, 0); len(records) != 0 {
		t.Errorf("failed export recorded in history: %+v", records)
	}
}

func TestService_ExportFile(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()
	loadTestExport(t, svc)

	path := filepath.Join(dir, "import.csv")
	if err := svc.ExportFile(ctx, path); err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), ";;Szamla import\n") {
		t.Errorf("file starts with %q", data[:20])
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file %s left behind", e.Name())
		}
	}

	err = svc.ExportFile(ctx, filepath.Join(dir, "missing", "import.csv"))
	if !errors.Is(err, ErrWrite) {
		t.Errorf("ExportFile() into missing dir error = %v, want ErrWrite", err)
	}
}

func TestService_WorkFileRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	loadTestExport(t, svc)

	if err := svc.UpdateCell(ctx, 1, "Penznem", "EUR"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := svc.ExportWork(ctx, &buf); err != nil {
		t.Fatalf("ExportWork() error = %v", err)
	}

	fresh, _ := newTestService(t)
	view, err := fresh.ImportWork(ctx, "work.csv", &buf)
	if err != nil {
		t.Fatalf("ImportWork() error = %v", err)
	}
	if view.RowCount != 2 {
		t.Fatalf("RowCount = %d, want 2", view.RowCount)
	}
	if got := view.Rows[1]["Penznem"]; got != "EUR" {
		t.Errorf("Penznem = %q, want the edited EUR", got)
	}

	if _, err := fresh.Resolve(ctx); !errors.Is(err, ErrNoData) {
		t.Errorf("Resolve() after ImportWork error = %v, want ErrNoData", err)
	}
	if _, err := fresh.Export(ctx); err != nil {
		t.Errorf("Export() after ImportWork error = %v", err)
	}
}

func TestService_Reload(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()
	loadTestExport(t, svc)

	updated := strings.Replace(testFieldsYAML, "Penznem: HUF", "Penznem: EUR", 1)
	if err := os.WriteFile(filepath.Join(dir, "fields.yaml"), []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	view, _ := svc.Table()
	if got := view.Rows[0]["Penznem"]; got != "EUR" {
		t.Errorf("Penznem after Reload = %q, want EUR", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "fields.yaml"), []byte("mappings: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := svc.Reload(ctx); !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("Reload() with broken definitions error = %v, want ErrMalformedDocument", err)
	}
	if got := len(svc.Fields()); got != 7 {
		t.Errorf("failed Reload replaced the catalog: %d fields", got)
	}
}

func TestService_OutputEncodingName(t *testing.T) {
	svc, _ := newTestService(t)
	if got := svc.OutputEncodingName(); got != "ISO-8859-2" {
		t.Errorf("OutputEncodingName() = %q, want ISO-8859-2", got)
	}

	utf := &Service{}
	if got := utf.OutputEncodingName(); got != "UTF-8" {
		t.Errorf("OutputEncodingName() without encoding = %q, want UTF-8", got)
	}
}

func TestService_Template(t *testing.T) {
	svc, _ := newTestService(t)
	tmpl := svc.Template()
	if len(tmpl.Header) != 1 || len(tmpl.Groups) != 2 {
		t.Errorf("Template() = %+v", tmpl)
	}
}
