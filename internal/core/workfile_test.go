package core

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestWorkFile_RoundTripKeepsEdits(t *testing.T) {
	c := loadTestCatalog(t, testFieldsYAML)
	table := Resolve(c, testSource())
	if err := table.SetCell(0, "Osszeg", "12 500, javitva"); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteWorkFile(&buf, table); err != nil {
		t.Fatalf("WriteWorkFile() error = %v", err)
	}

	restored, dropped, err := ReadWorkFile(&buf, c)
	if err != nil {
		t.Fatalf("ReadWorkFile() error = %v", err)
	}
	if len(dropped) != 0 {
		t.Errorf("dropped = %v, want none", dropped)
	}
	if !reflect.DeepEqual(restored, table) {
		t.Errorf("restored table differs:\n got %v\nwant %v", restored, table)
	}
}

func TestReadWorkFile_ShapesToCatalog(t *testing.T) {
	c, err := NewCatalog(NewConstantField("A", "x"), NewTextField("B", "y"))
	if err != nil {
		t.Fatal(err)
	}

	input := "A,Extra\n1,ignored\n2,ignored\n"
	table, dropped, err := ReadWorkFile(strings.NewReader(input), c)
	if err != nil {
		t.Fatalf("ReadWorkFile() error = %v", err)
	}

	if !reflect.DeepEqual(dropped, []string{"Extra"}) {
		t.Errorf("dropped = %v, want [Extra]", dropped)
	}
	want := []ResolvedRow{{"A": "1", "B": ""}, {"A": "2", "B": ""}}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("Rows = %v, want %v", table.Rows, want)
	}
	if !reflect.DeepEqual(table.Fields, []string{"A", "B"}) {
		t.Errorf("Fields = %v, want [A B]", table.Fields)
	}
}

func TestWorkFile_RoundTripUnusualFieldNames(t *testing.T) {
	c, err := NewCatalog(
		NewConstantField(`"Megjegyzes"`, "m"),
		NewConstantField("=Osszeg", "100"),
		NewTextField("'Kod'", "k"),
	)
	if err != nil {
		t.Fatal(err)
	}
	table := Resolve(c, &SourceTable{Rows: []SourceRow{{}}})

	var buf bytes.Buffer
	if err := WriteWorkFile(&buf, table); err != nil {
		t.Fatalf("WriteWorkFile() error = %v", err)
	}

	restored, dropped, err := ReadWorkFile(&buf, c)
	if err != nil {
		t.Fatalf("ReadWorkFile() error = %v", err)
	}
	if len(dropped) != 0 {
		t.Errorf("dropped = %v, want none", dropped)
	}
	if !reflect.DeepEqual(restored, table) {
		t.Errorf("restored table differs:\n got %v\nwant %v", restored, table)
	}
}
