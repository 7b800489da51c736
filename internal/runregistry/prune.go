package runregistry

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Prune deletes whole run directories older than maxAge across every
// artifact kind, mirroring original_source/src/utils.py's
// cleanup_old_runs but driven by age instead of a fixed "keep N" count
// — there is no count-based policy.
func Prune(root string, maxAge time.Duration, now time.Time, log *zap.Logger) error {
	cutoff := now.Add(-maxAge)
	var lastErr error

	for _, kind := range Kinds {
		kindDir := filepath.Join(root, kind)
		entries, err := os.ReadDir(kindDir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			lastErr = err
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			runDir := filepath.Join(kindDir, e.Name())
			info, err := e.Info()
			if err != nil {
				lastErr = err
				continue
			}
			if info.ModTime().After(cutoff) {
				continue
			}
			if err := os.RemoveAll(runDir); err != nil {
				lastErr = err
				continue
			}
			if log != nil {
				log.Info("pruned expired run artifacts", zap.String("kind", kind), zap.String("run_id", e.Name()))
			}
		}
	}
	return lastErr
}
