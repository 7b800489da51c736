package schemagen

import (
	"strings"
	"testing"

	"dbmig/internal/model"
)

func sampleMapping() *model.Mapping {
	return &model.Mapping{
		SourceTable: "orders",
		TargetTable: "orders",
		Columns: []model.ColumnMapping{
			{Source: "id", Target: "id", TargetType: "BIGINT", Role: "primary_key", AutoIncrement: true},
			{Source: "notes", Target: "notes", TargetType: "LONGTEXT", Nullable: true},
		},
		Indexes: []model.IndexSpec{
			{Name: "idx_notes", Columns: []string{"notes"}},
		},
	}
}

func TestRenderCreateTableIncludesPrimaryKey(t *testing.T) {
	ddl := RenderCreateTable(sampleMapping(), "target_db")
	if !strings.Contains(ddl, "PRIMARY KEY (`id`)") {
		t.Errorf("expected primary key clause, got: %s", ddl)
	}
	if !strings.Contains(ddl, "AUTO_INCREMENT") {
		t.Errorf("expected AUTO_INCREMENT, got: %s", ddl)
	}
	if !strings.Contains(ddl, "ENGINE=InnoDB") {
		t.Errorf("expected default engine, got: %s", ddl)
	}
}

func TestRenderIndexesAddsPrefixLengthForTextTypes(t *testing.T) {
	stmts := RenderIndexes(sampleMapping(), "target_db")
	if len(stmts) != 1 {
		t.Fatalf("expected 1 index statement, got %d", len(stmts))
	}
	if !strings.Contains(stmts[0], "`notes`(64)") {
		t.Errorf("expected prefix-length index key, got: %s", stmts[0])
	}
}

func TestBuildFKStatementsSkipsUnknownReferencedTable(t *testing.T) {
	spec := &model.TableSpec{
		Name: "orders",
		ForeignKeys: []model.ForeignKeySpec{
			{Column: "customer_id", RefTable: "customers", RefColumn: "id"},
		},
	}
	stmts := BuildFKStatements(spec, sampleMapping(), "target_db", map[string]*model.Mapping{})
	if len(stmts) != 0 {
		t.Errorf("expected no FK statements when referenced table isn't migrated, got %v", stmts)
	}
}
