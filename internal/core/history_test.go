package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryHistory_NewestFirst(t *testing.T) {
	h := NewMemoryHistory(10)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		rec := ConversionRecord{
			SourceName: fmt.Sprintf("export-%d.csv", i),
			Rows:       i,
			CreatedAt:  testNow.Add(time.Duration(i) * time.Minute),
		}
		if err := h.Record(ctx, rec); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := h.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(got))
	}
	for i, want := range []string{"export-3.csv", "export-2.csv", "export-1.csv"} {
		if got[i].SourceName != want {
			t.Errorf("List()[%d].SourceName = %q, want %q", i, got[i].SourceName, want)
		}
		if _, err := uuid.Parse(got[i].ID); err != nil {
			t.Errorf("List()[%d].ID = %q is not a UUID", i, got[i].ID)
		}
	}
}

func TestMemoryHistory_Limits(t *testing.T) {
	h := NewMemoryHistory(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		h.Record(ctx, ConversionRecord{SourceName: fmt.Sprint(i)})
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"capacity evicts oldest", 0, []string{"5", "4", "3"}},
		{"limit below size", 2, []string{"5", "4"}},
		{"limit above size", 10, []string{"5", "4", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := h.List(ctx, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("List(%d) returned %d records, want %d", tt.limit, len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].SourceName != tt.want[i] {
					t.Errorf("List(%d)[%d] = %q, want %q", tt.limit, i, got[i].SourceName, tt.want[i])
				}
			}
		})
	}
}

func TestMemoryHistory_KeepsGivenFields(t *testing.T) {
	h := NewMemoryHistory(0)
	ctx := context.Background()

	rec := ConversionRecord{ID: "fixed", CreatedAt: testNow, ClientIP: "10.0.0.7"}
	h.Record(ctx, rec)

	got, _ := h.List(ctx, 1)
	if got[0].ID != "fixed" || !got[0].CreatedAt.Equal(testNow) || got[0].ClientIP != "10.0.0.7" {
		t.Errorf("List()[0] = %+v, want the recorded values", got[0])
	}
}
