package runregistry

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

var runIDPattern = regexp.MustCompile(`^\d{8}-\d{6}-[0-9a-f]{6}$`)

func TestNewRunIDMatchesExpectedFormat(t *testing.T) {
	id := NewRunID(time.Date(2026, 3, 4, 15, 6, 7, 0, time.UTC))
	if !runIDPattern.MatchString(id) {
		t.Errorf("run id %q does not match YYYYMMDD-HHMMSS-<6hex>", id)
	}
	if id[:15] != "20260304-150607" {
		t.Errorf("expected timestamp prefix 20260304-150607, got %q", id[:15])
	}
}

func TestNewRunIDIsUnique(t *testing.T) {
	now := time.Now()
	a := NewRunID(now)
	b := NewRunID(now)
	if a == b {
		t.Error("expected two calls at the same timestamp to still differ by hex suffix")
	}
}

func TestPathsResolveUnderKindDirectories(t *testing.T) {
	p := NewPaths("/artifacts", "20260304-150607-abc123")
	if p.Schemas() != "/artifacts/schemas/20260304-150607-abc123" {
		t.Errorf("unexpected schemas path: %s", p.Schemas())
	}
	if p.DLQ() != "/artifacts/dlq/20260304-150607-abc123" {
		t.Errorf("unexpected dlq path: %s", p.DLQ())
	}
}

func TestStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := SaveState(dir, "20260304-150607-abc123"); err != nil {
		t.Fatalf("SaveState returned error: %v", err)
	}
	state, err := LoadState(dir)
	if err != nil {
		t.Fatalf("LoadState returned error: %v", err)
	}
	if state.LastRunID != "20260304-150607-abc123" {
		t.Errorf("expected last run id to round trip, got %q", state.LastRunID)
	}
}

func TestLoadStateMissingReturnsZeroValue(t *testing.T) {
	state, err := LoadState(t.TempDir())
	if err != nil {
		t.Fatalf("LoadState returned error: %v", err)
	}
	if state.LastRunID != "" {
		t.Errorf("expected empty last run id, got %q", state.LastRunID)
	}
}

func TestPruneRemovesOnlyExpiredRunDirectories(t *testing.T) {
	root := t.TempDir()
	oldRun := filepath.Join(root, "schemas", "old-run")
	freshRun := filepath.Join(root, "schemas", "fresh-run")
	if err := os.MkdirAll(oldRun, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(freshRun, 0o755); err != nil {
		t.Fatal(err)
	}
	oldTime := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldRun, oldTime, oldTime); err != nil {
		t.Fatal(err)
	}

	if err := Prune(root, 24*time.Hour, time.Now(), nil); err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}

	if _, err := os.Stat(oldRun); !os.IsNotExist(err) {
		t.Error("expected old run directory to be removed")
	}
	if _, err := os.Stat(freshRun); err != nil {
		t.Errorf("expected fresh run directory to survive, got err: %v", err)
	}
}
