package migrator

import (
	"testing"

	"dbmig/internal/model"
)

func TestPlanResumeUsesOffsetWhenNoPrimaryKey(t *testing.T) {
	spec := &model.TableSpec{
		Name:    "events",
		Columns: []model.ColumnSpec{{Name: "payload"}},
	}
	cp := &model.Checkpoint{Table: "events", LastOffset: 500}

	mode, pkCols, lastPK, offset := PlanResume(spec, cp, nil)
	if mode != ResumeByOffset {
		t.Errorf("expected ResumeByOffset, got %v", mode)
	}
	if len(pkCols) != 0 || lastPK != nil {
		t.Errorf("expected no pk columns/value for offset mode, got %v %v", pkCols, lastPK)
	}
	if offset != 500 {
		t.Errorf("expected offset 500, got %d", offset)
	}
}

func TestPlanResumeUsesKeysetWhenPrimaryKeyExists(t *testing.T) {
	spec := &model.TableSpec{
		Name:    "orders",
		Columns: []model.ColumnSpec{{Name: "id", IsPrimaryKey: true}},
	}
	cp := &model.Checkpoint{Table: "orders"}

	mode, pkCols, lastPK, _ := PlanResume(spec, cp, nil)
	if mode != ResumeByKeyset {
		t.Errorf("expected ResumeByKeyset, got %v", mode)
	}
	if len(pkCols) != 1 || pkCols[0] != "id" {
		t.Errorf("expected pk columns [id], got %v", pkCols)
	}
	if lastPK != nil {
		t.Errorf("expected nil lastPK for a fresh checkpoint, got %v", lastPK)
	}
}

func TestEncodeDecodeLastPKRoundTripsCompositeKey(t *testing.T) {
	encoded := EncodeLastPK([]any{"acct-1", "42"})
	decoded := decodeLastPK(encoded)
	if len(decoded) != 2 || decoded[0] != "acct-1" || decoded[1] != "42" {
		t.Errorf("round trip mismatch: %v", decoded)
	}
}
