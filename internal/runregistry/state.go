package runregistry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"dbmig/internal/model"
)

// LoadState reads run_state.json, returning a zero-value RunState if
// none exists yet (first run in a fresh artifact root).
func LoadState(root string) (*model.RunState, error) {
	raw, err := os.ReadFile(StateFile(root))
	if os.IsNotExist(err) {
		return &model.RunState{}, nil
	}
	if err != nil {
		return nil, err
	}
	var state model.RunState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState records runID as the last active run, atomically via
// temp-file-then-rename, the same pattern as checkpoints.
func SaveState(root, runID string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	state := model.RunState{LastRunID: runID, UpdatedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	dst := StateFile(root)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

// ListRuns enumerates run IDs known to the registry by scanning the
// schemas/ artifact kind (present for every run that got past extract),
// since there's no separate run index file beyond run_state.json.
func ListRuns(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, "schemas"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var runs []string
	for _, e := range entries {
		if e.IsDir() {
			runs = append(runs, e.Name())
		}
	}
	return runs, nil
}
