package approval

import (
	"dbmig/internal/model"
	"testing"
)

func TestValidateMappingRejectsUnmappedColumn(t *testing.T) {
	spec := &model.TableSpec{
		Name: "orders",
		Columns: []model.ColumnSpec{
			{Name: "id", CanonicalType: "INT8"},
			{Name: "total", CanonicalType: "DECIMAL"},
		},
	}
	mapping := &model.Mapping{
		SourceTable: "orders",
		Columns: []model.ColumnMapping{
			{Source: "id", Target: "id", CanonicalType: "INT8", TargetCanonicalType: "INT8"},
		},
	}
	if err := ValidateMapping(spec, mapping); err == nil {
		t.Fatal("expected error for column present only on the source side")
	}
}

func TestValidateMappingRejectsBogusCanonicalType(t *testing.T) {
	spec := &model.TableSpec{
		Name:    "orders",
		Columns: []model.ColumnSpec{{Name: "id", CanonicalType: "INT8"}},
	}
	mapping := &model.Mapping{
		SourceTable: "orders",
		Columns: []model.ColumnMapping{
			{Source: "id", Target: "id", CanonicalType: "NOT_REAL", TargetCanonicalType: "NOT_REAL"},
		},
	}
	if err := ValidateMapping(spec, mapping); err == nil {
		t.Fatal("expected error for invalid canonical type")
	}
}

func TestValidateMappingAcceptsCompleteMapping(t *testing.T) {
	spec := &model.TableSpec{
		Name: "orders",
		Columns: []model.ColumnSpec{
			{Name: "id", CanonicalType: "INT8"},
			{Name: "total", CanonicalType: "DECIMAL"},
		},
	}
	mapping := &model.Mapping{
		SourceTable: "orders",
		Columns: []model.ColumnMapping{
			{Source: "id", Target: "id", CanonicalType: "INT8", TargetCanonicalType: "INT8"},
			{Source: "total", Target: "total", CanonicalType: "DECIMAL", TargetCanonicalType: "DECIMAL"},
		},
	}
	if err := ValidateMapping(spec, mapping); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
