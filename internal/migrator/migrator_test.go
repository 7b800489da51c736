package migrator

import (
	"context"
	"errors"
	"testing"

	"dbmig/internal/canonical"
	"dbmig/internal/config"
	"dbmig/internal/connector"
	"dbmig/internal/model"
)

type fakeIterator struct {
	rows []map[string]any
	i    int
}

func (f *fakeIterator) Next() bool {
	if f.i >= len(f.rows) {
		return false
	}
	f.i++
	return true
}
func (f *fakeIterator) Row() map[string]any { return f.rows[f.i-1] }
func (f *fakeIterator) Err() error          { return nil }
func (f *fakeIterator) Close() error        { return nil }

type fakeSource struct {
	rows []map[string]any
}

func (f *fakeSource) Engine() string                    { return "fake" }
func (f *fakeSource) Connect(ctx context.Context) error { return nil }
func (f *fakeSource) ListTables(ctx context.Context, schema string) ([]string, error) {
	return nil, nil
}
func (f *fakeSource) DescribeTable(ctx context.Context, schema, table string) (*model.TableSpec, error) {
	return nil, nil
}
func (f *fakeSource) RowCountEstimate(ctx context.Context, schema, table string) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeSource) StreamRows(ctx context.Context, schema, table string, columns, pkCols []string, lastPK []any, offset int64, limit int) (connector.RowIterator, error) {
	var start int64
	if len(lastPK) > 0 {
		threshold := lastPK[0].(int64)
		for i, r := range f.rows {
			if r["id"].(int64) > threshold {
				start = int64(i)
				break
			}
			start = int64(len(f.rows))
		}
	} else {
		start = offset
	}
	end := start + int64(limit)
	if end > int64(len(f.rows)) {
		end = int64(len(f.rows))
	}
	if start > end {
		start = end
	}
	chunk := make([]map[string]any, end-start)
	copy(chunk, f.rows[start:end])
	return &fakeIterator{rows: chunk}, nil
}

func (f *fakeSource) Aggregate(ctx context.Context, schema, table, column, fn string) (any, error) {
	return nil, nil
}
func (f *fakeSource) SampleHash(ctx context.Context, schema, table string, pkCols, hashCols []string, transforms []canonical.TransformFunc, keys [][]any) (map[string]uint64, error) {
	return nil, nil
}
func (f *fakeSource) Close() error { return nil }

type fakeTarget struct {
	loadedRows []map[string]any
	failID     int64
}

func (f *fakeTarget) Engine() string                    { return "mysql" }
func (f *fakeTarget) Connect(ctx context.Context) error { return nil }
func (f *fakeTarget) ExecDDL(ctx context.Context, stmt string) error { return nil }

func (f *fakeTarget) BulkLoad(ctx context.Context, table string, columns []string, rows []map[string]any) (int, []connector.RowFailure, error) {
	var failures []connector.RowFailure
	loaded := 0
	for i, r := range rows {
		if id, ok := r["id"].(int64); ok && id == f.failID {
			failures = append(failures, connector.RowFailure{Index: i, Kind: "constraint_violation", Err: errors.New("duplicate key")})
			continue
		}
		f.loadedRows = append(f.loadedRows, r)
		loaded++
	}
	return loaded, failures, nil
}

func (f *fakeTarget) RowCount(ctx context.Context, table string) (int64, error) {
	return int64(len(f.loadedRows)), nil
}
func (f *fakeTarget) Aggregate(ctx context.Context, table, column, fn string) (any, error) {
	return nil, nil
}
func (f *fakeTarget) SampleHash(ctx context.Context, table string, pkCols, hashCols []string, keys [][]any) (map[string]uint64, error) {
	return nil, nil
}
func (f *fakeTarget) ToggleFK(ctx context.Context, enabled bool) error { return nil }
func (f *fakeTarget) Close() error                                    { return nil }

func sampleRows(n int) []map[string]any {
	rows := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		rows[i] = map[string]any{"id": int64(i + 1), "name": "row"}
	}
	return rows
}

func sampleSpecAndMapping() (*model.TableSpec, *model.Mapping) {
	spec := &model.TableSpec{
		Name: "orders",
		Columns: []model.ColumnSpec{
			{Name: "id", IsPrimaryKey: true, CanonicalType: "INT8"},
			{Name: "name", CanonicalType: "TEXT"},
		},
	}
	mapping := &model.Mapping{
		SourceTable: "orders",
		TargetTable: "orders",
		Columns: []model.ColumnMapping{
			{Source: "id", Target: "id", CanonicalType: "INT8", TargetCanonicalType: "INT8"},
			{Source: "name", Target: "name", CanonicalType: "TEXT", TargetCanonicalType: "TEXT"},
		},
	}
	return spec, mapping
}

func TestMigrateTableLoadsAllRowsAcrossChunks(t *testing.T) {
	src := &fakeSource{rows: sampleRows(5)}
	tgt := &fakeTarget{failID: -1}
	m := New(src, tgt, &CheckpointStore{Dir: t.TempDir()}, NewDLQWriter(t.TempDir()), config.MigrationConfig{ChunkSize: 2, MinChunkSize: 1, MaxChunkFailures: 5}, nil)

	spec, mapping := sampleSpecAndMapping()
	if err := m.MigrateTable(context.Background(), spec, mapping); err != nil {
		t.Fatalf("MigrateTable returned error: %v", err)
	}
	if len(tgt.loadedRows) != 5 {
		t.Fatalf("expected 5 rows loaded, got %d", len(tgt.loadedRows))
	}

	cp, err := m.Checkpoints.Load("orders")
	if err != nil {
		t.Fatalf("Load checkpoint returned error: %v", err)
	}
	if cp.Status != model.StatusDone {
		t.Errorf("expected checkpoint status done, got %s", cp.Status)
	}
	if cp.RowsLoaded != 5 {
		t.Errorf("expected checkpoint rows_loaded = 5, got %d", cp.RowsLoaded)
	}
	if cp.RowsFailed != 0 {
		t.Errorf("expected checkpoint rows_failed = 0, got %d", cp.RowsFailed)
	}
}

func TestMigrateTableRoutesFailedRowsToDLQ(t *testing.T) {
	src := &fakeSource{rows: sampleRows(4)}
	tgt := &fakeTarget{failID: 3}
	dlqDir := t.TempDir()
	m := New(src, tgt, &CheckpointStore{Dir: t.TempDir()}, NewDLQWriter(dlqDir), config.MigrationConfig{ChunkSize: 10, MinChunkSize: 1, MaxChunkFailures: 5}, nil)

	spec, mapping := sampleSpecAndMapping()
	if err := m.MigrateTable(context.Background(), spec, mapping); err != nil {
		t.Fatalf("MigrateTable returned error: %v", err)
	}
	if len(tgt.loadedRows) != 3 {
		t.Fatalf("expected 3 successfully loaded rows, got %d", len(tgt.loadedRows))
	}
	cp, err := m.Checkpoints.Load("orders")
	if err != nil {
		t.Fatalf("Load checkpoint returned error: %v", err)
	}
	if cp.RowsFailed != 1 {
		t.Errorf("expected checkpoint rows_failed = 1, got %d", cp.RowsFailed)
	}
	if err := m.DLQ.Close(); err != nil {
		t.Fatalf("DLQ Close returned error: %v", err)
	}
}

func TestMigrateTableSkipsAlreadyDoneCheckpoint(t *testing.T) {
	src := &fakeSource{rows: sampleRows(5)}
	tgt := &fakeTarget{failID: -1}
	cpDir := t.TempDir()
	store := &CheckpointStore{Dir: cpDir}
	if err := store.Save(&model.Checkpoint{Table: "orders", Status: model.StatusDone, RowsLoaded: 5}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	m := New(src, tgt, store, NewDLQWriter(t.TempDir()), config.MigrationConfig{ChunkSize: 2, MinChunkSize: 1, MaxChunkFailures: 5}, nil)

	spec, mapping := sampleSpecAndMapping()
	if err := m.MigrateTable(context.Background(), spec, mapping); err != nil {
		t.Fatalf("MigrateTable returned error: %v", err)
	}
	if len(tgt.loadedRows) != 0 {
		t.Errorf("expected no rows loaded for an already-done table, got %d", len(tgt.loadedRows))
	}
}
