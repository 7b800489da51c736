// Package runregistry generates run IDs, resolves the per-run artifact
// directory layout, and tracks/prunes runs, grounded on
// original_source/src/utils.py's generate_run_id/cleanup_old_runs.
package runregistry

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kinds are the artifact directories every run may populate under the
// configured artifact root.
var Kinds = []string{"schemas", "stats", "mappings", "ddl", "checkpoints", "dlq", "reports"}

// NewRunID formats a run identifier as YYYYMMDD-HHMMSS-<6 hex>. This is
// the format spec.md states explicitly; it differs from
// original_source's "run-<ts>-<hex>" (no leading "run-" segment).
func NewRunID(now time.Time) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return now.UTC().Format("20060102-150405") + "-" + hex
}

// Paths resolves artifact directories for one run under root.
type Paths struct {
	Root  string
	RunID string
}

func NewPaths(root, runID string) Paths {
	return Paths{Root: root, RunID: runID}
}

func (p Paths) join(kind string) string {
	return p.Root + "/" + kind + "/" + p.RunID
}

func (p Paths) Schemas() string     { return p.join("schemas") }
func (p Paths) Stats() string       { return p.join("stats") }
func (p Paths) Mappings() string    { return p.join("mappings") }
func (p Paths) DDL() string         { return p.join("ddl") }
func (p Paths) Checkpoints() string { return p.join("checkpoints") }
func (p Paths) DLQ() string         { return p.join("dlq") }
func (p Paths) Reports() string     { return p.join("reports") }

// StateFile is the path to the run registry's state file, one level
// above any single run's directories.
func StateFile(root string) string {
	return root + "/run_state.json"
}
