package validator

import (
	"context"
	"testing"

	"dbmig/internal/canonical"
	"dbmig/internal/config"
	"dbmig/internal/connector"
	"dbmig/internal/model"
)

type fakeSource struct {
	counts map[string]any
	aggs   map[string]any
	rowCountEstimate int64
	sampleRows []map[string]any
	hashes map[string]map[string]uint64
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
	return f.rowCountEstimate, nil
}
func (f *fakeSource) StreamRows(ctx context.Context, schema, table string, columns, pkCols []string, lastPK []any, offset int64, limit int) (connector.RowIterator, error) {
	return &fakeIter{rows: f.sampleRows}, nil
}
func (f *fakeSource) Aggregate(ctx context.Context, schema, table, column, fn string) (any, error) {
	if column == "*" && fn == "COUNT" {
		return f.counts[table], nil
	}
	return f.aggs[column+":"+fn], nil
}
func (f *fakeSource) SampleHash(ctx context.Context, schema, table string, pkCols, hashCols []string, transforms []canonical.TransformFunc, keys [][]any) (map[string]uint64, error) {
	return f.hashes["source"], nil
}
func (f *fakeSource) Close() error { return nil }

type fakeIter struct {
	rows []map[string]any
	i    int
}

func (it *fakeIter) Next() bool {
	if it.i >= len(it.rows) {
		return false
	}
	it.i++
	return true
}
func (it *fakeIter) Row() map[string]any { return it.rows[it.i-1] }
func (it *fakeIter) Err() error          { return nil }
func (it *fakeIter) Close() error        { return nil }

type fakeTarget struct {
	rowCount int64
	aggs     map[string]any
	hashes   map[string]map[string]uint64
}

func (f *fakeTarget) Engine() string                                 { return "mysql" }
func (f *fakeTarget) Connect(ctx context.Context) error              { return nil }
func (f *fakeTarget) ExecDDL(ctx context.Context, stmt string) error { return nil }
func (f *fakeTarget) BulkLoad(ctx context.Context, table string, columns []string, rows []map[string]any) (int, []connector.RowFailure, error) {
	return len(rows), nil, nil
}
func (f *fakeTarget) RowCount(ctx context.Context, table string) (int64, error) {
	return f.rowCount, nil
}
func (f *fakeTarget) Aggregate(ctx context.Context, table, column, fn string) (any, error) {
	return f.aggs[column+":"+fn], nil
}
func (f *fakeTarget) SampleHash(ctx context.Context, table string, pkCols, hashCols []string, keys [][]any) (map[string]uint64, error) {
	return f.hashes["target"], nil
}
func (f *fakeTarget) ToggleFK(ctx context.Context, enabled bool) error { return nil }
func (f *fakeTarget) Close() error                                    { return nil }

func TestCheckRowCountPassesOnExactMatch(t *testing.T) {
	src := &fakeSource{counts: map[string]any{"orders": int64(100)}}
	tgt := &fakeTarget{rowCount: 100}

	check := CheckRowCount(context.Background(), src, tgt, "public", "orders", "orders", 0)
	if !check.Pass {
		t.Errorf("expected pass, got %+v", check)
	}
}

func TestCheckRowCountFailsOutsideTolerance(t *testing.T) {
	src := &fakeSource{counts: map[string]any{"orders": int64(100)}}
	tgt := &fakeTarget{rowCount: 90}

	check := CheckRowCount(context.Background(), src, tgt, "public", "orders", "orders", 0.01)
	if check.Pass {
		t.Errorf("expected failure outside tolerance, got %+v", check)
	}
}

func TestCheckRowCountWarnsWithinTolerance(t *testing.T) {
	src := &fakeSource{counts: map[string]any{"orders": int64(1000)}}
	tgt := &fakeTarget{rowCount: 995}

	check := CheckRowCount(context.Background(), src, tgt, "public", "orders", "orders", 0.01)
	if !check.Pass || !check.Warning {
		t.Errorf("expected a tolerated warning, got %+v", check)
	}
}

func sampleMapping() *model.Mapping {
	return &model.Mapping{
		SourceTable: "orders",
		TargetTable: "orders",
		Columns: []model.ColumnMapping{
			{Source: "id", Target: "id", CanonicalType: "INT8", Role: "primary_key"},
			{Source: "total", Target: "total", CanonicalType: "DECIMAL"},
		},
	}
}

func TestCheckAggregatesFlagsMismatchAsFailureByDefault(t *testing.T) {
	src := &fakeSource{aggs: map[string]any{"total:SUM": "100.00", "id:COUNT_DISTINCT": int64(10)}}
	tgt := &fakeTarget{aggs: map[string]any{"total:SUM": "90.00", "id:COUNT_DISTINCT": int64(10)}}

	checks := CheckAggregates(context.Background(), src, tgt, "public", "orders", sampleMapping(), 0.001)
	var sumCheck model.ValidationCheck
	for _, c := range checks {
		if c.Check == "sum" {
			sumCheck = c
		}
	}
	if sumCheck.Pass {
		t.Errorf("expected sum mismatch to fail, got %+v", sumCheck)
	}
}

func TestCheckAggregatesDowngradesLossyColumnMismatchToWarning(t *testing.T) {
	mapping := sampleMapping()
	mapping.Columns[1].Warning = "precision narrowed"
	src := &fakeSource{aggs: map[string]any{"total:SUM": "100.00", "id:COUNT_DISTINCT": int64(10)}}
	tgt := &fakeTarget{aggs: map[string]any{"total:SUM": "90.00", "id:COUNT_DISTINCT": int64(10)}}

	checks := CheckAggregates(context.Background(), src, tgt, "public", "orders", mapping, 0.001)
	for _, c := range checks {
		if c.Check == "sum" {
			if !c.Pass || !c.Warning {
				t.Errorf("expected lossy column mismatch to be a warning, got %+v", c)
			}
		}
	}
}

func TestValidateTableSkipsSampleHashWithoutPrimaryKey(t *testing.T) {
	spec := &model.TableSpec{Name: "orders", Columns: []model.ColumnSpec{{Name: "id"}, {Name: "total"}}}
	src := &fakeSource{counts: map[string]any{"orders": int64(5)}, aggs: map[string]any{"total:SUM": "5.00"}}
	tgt := &fakeTarget{rowCount: 5, aggs: map[string]any{"total:SUM": "5.00"}}
	v := New(src, tgt, "public", "run1", config.ValidationConfig{SampleSize: 10}, nil)

	result := v.ValidateTable(context.Background(), spec, sampleMapping())
	found := false
	for _, c := range result.Checks {
		if c.Check == "sample_hash" && c.Warning {
			found = true
		}
	}
	if !found {
		t.Error("expected a warning sample_hash check when the table has no primary key")
	}
}
