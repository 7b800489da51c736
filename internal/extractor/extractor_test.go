package extractor

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"dbmig/internal/canonical"
	"dbmig/internal/connector"
	"dbmig/internal/model"
)

type fakeSource struct {
	tables       []string
	describeErr  map[string]error
	rowCounts    map[string]int64
}

func (f *fakeSource) Engine() string                       { return "fake" }
func (f *fakeSource) Connect(ctx context.Context) error    { return nil }
func (f *fakeSource) ListTables(ctx context.Context, schema string) ([]string, error) {
	return f.tables, nil
}

func (f *fakeSource) DescribeTable(ctx context.Context, schema, table string) (*model.TableSpec, error) {
	if err, ok := f.describeErr[table]; ok {
		return nil, err
	}
	return &model.TableSpec{Schema: schema, Name: table, Columns: []model.ColumnSpec{{Name: "id", CanonicalType: "INT8"}}}, nil
}

func (f *fakeSource) RowCountEstimate(ctx context.Context, schema, table string) (int64, error) {
	return f.rowCounts[table], nil
}

func (f *fakeSource) StreamRows(ctx context.Context, schema, table string, columns, pkCols []string, lastPK []any, offset int64, limit int) (connector.RowIterator, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeSource) Aggregate(ctx context.Context, schema, table, column, fn string) (any, error) {
	return int64(0), nil
}
func (f *fakeSource) SampleHash(ctx context.Context, schema, table string, pkCols, hashCols []string, transforms []canonical.TransformFunc, keys [][]any) (map[string]uint64, error) {
	return nil, nil
}
func (f *fakeSource) Close() error { return nil }

func TestExtractSchemaIsolatesPerTableFailures(t *testing.T) {
	src := &fakeSource{
		tables:      []string{"orders", "broken_table", "customers"},
		describeErr: map[string]error{"broken_table": errors.New("permission denied")},
		rowCounts:   map[string]int64{"orders": 100, "customers": 50},
	}
	ex := New(src, "public", zap.NewNop())

	specs, err := ex.ExtractSchema(context.Background())
	if err != nil {
		t.Fatalf("ExtractSchema returned error: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(specs))
	}

	var brokenSpec *model.TableSpec
	for _, s := range specs {
		if s.Name == "broken_table" {
			brokenSpec = s
		}
	}
	if brokenSpec == nil {
		t.Fatal("broken_table missing from results")
	}
	if brokenSpec.ExtractError == "" {
		t.Error("expected extract_error to be recorded for broken_table")
	}

	for _, s := range specs {
		if s.Name == "orders" && s.RowCountEstimate != 100 {
			t.Errorf("orders row count = %d, want 100", s.RowCountEstimate)
		}
	}
}
