package migrator

import (
	"testing"
	"time"

	"dbmig/internal/model"
)

func TestCheckpointLoadMissingReturnsZeroValue(t *testing.T) {
	store := &CheckpointStore{Dir: t.TempDir()}
	cp, err := store.Load("orders")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cp.Table != "orders" || cp.Status != model.StatusPending {
		t.Errorf("expected fresh pending checkpoint for orders, got %+v", cp)
	}
}

func TestCheckpointSaveLoadRoundTrip(t *testing.T) {
	store := &CheckpointStore{Dir: t.TempDir()}
	cp := &model.Checkpoint{
		Table:       "orders",
		Status:      model.StatusRunning,
		LastPKValue: "42",
		RowsLoaded:  1000,
		RowsFailed:  3,
		ChunkSize:   500,
		UpdatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Save(cp); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := store.Load("orders")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.RowsLoaded != 1000 || loaded.RowsFailed != 3 || loaded.LastPKValue != "42" || loaded.ChunkSize != 500 || loaded.Status != model.StatusRunning {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestCheckpointSaveOverwritesPreviousAtomically(t *testing.T) {
	store := &CheckpointStore{Dir: t.TempDir()}
	first := &model.Checkpoint{Table: "orders", Status: model.StatusRunning, RowsLoaded: 10}
	second := &model.Checkpoint{Table: "orders", RowsLoaded: 20, Status: model.StatusDone}

	if err := store.Save(first); err != nil {
		t.Fatalf("Save(first) returned error: %v", err)
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("Save(second) returned error: %v", err)
	}

	loaded, err := store.Load("orders")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.RowsLoaded != 20 || loaded.Status != model.StatusDone {
		t.Errorf("expected the second save to win, got %+v", loaded)
	}
}
