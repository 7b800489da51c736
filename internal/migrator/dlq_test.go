package migrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dbmig/internal/model"
)

func TestDLQWriterAppendsAcrossMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	w := NewDLQWriter(dir)

	err1 := w.Write(model.DLQRecord{Table: "orders", Offset: 1, ErrorKind: "constraint_violation", Error: "duplicate key", Row: map[string]any{"id": 1}})
	err2 := w.Write(model.DLQRecord{Table: "orders", Offset: 2, ErrorKind: "type_conversion", Error: "bad decimal", Row: map[string]any{"id": 2}})
	if err1 != nil || err2 != nil {
		t.Fatalf("Write returned errors: %v, %v", err1, err2)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "orders.csv"))
	if err != nil {
		t.Fatalf("failed to read dlq file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %q", len(lines), string(data))
	}
	if lines[0] != "offset,error_kind,error,row_json" {
		t.Errorf("unexpected header: %q", lines[0])
	}
}

func TestDLQWriterDoesNotDuplicateHeaderOnReopen(t *testing.T) {
	dir := t.TempDir()

	w1 := NewDLQWriter(dir)
	if err := w1.Write(model.DLQRecord{Table: "orders", Offset: 1, ErrorKind: "unknown", Error: "boom", Row: map[string]any{}}); err != nil {
		t.Fatalf("first Write returned error: %v", err)
	}
	if err := w1.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	w2 := NewDLQWriter(dir)
	if err := w2.Write(model.DLQRecord{Table: "orders", Offset: 2, ErrorKind: "unknown", Error: "boom again", Row: map[string]any{}}); err != nil {
		t.Fatalf("second Write returned error: %v", err)
	}
	if err := w2.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "orders.csv"))
	if err != nil {
		t.Fatalf("failed to read dlq file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected exactly one header line across both writers, got %d lines: %q", len(lines), string(data))
	}
}
