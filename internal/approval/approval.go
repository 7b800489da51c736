// Package approval validates and promotes draft mappings to approved,
// the human review gate between propose and apply-schema.
package approval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dbmig/internal/canonical"
	"dbmig/internal/model"
)

// ValidateMapping checks a draft mapping's structural and semantic
// shape before it can be approved: every canonical type is a member of
// the closed enumeration, every PK/FK column referenced elsewhere in
// the mapping actually exists, a registered row-transform exists for
// every (source, target) canonical pair, and no column appears on only
// one side of the mapping — the last is treated as a MappingError at
// approval time, per this system's resolution of that open question.
func ValidateMapping(spec *model.TableSpec, mapping *model.Mapping) error {
	sourceCols := make(map[string]bool, len(spec.Columns))
	for _, c := range spec.Columns {
		sourceCols[c.Name] = true
	}

	mappedSources := make(map[string]bool, len(mapping.Columns))
	for _, cm := range mapping.Columns {
		if !canonical.Type(cm.CanonicalType).Valid() {
			return fmt.Errorf("mapping error: %s.%s: canonical type %q is not valid", mapping.SourceTable, cm.Source, cm.CanonicalType)
		}
		if cm.Target == "" {
			return fmt.Errorf("mapping error: %s.%s: missing target column name", mapping.SourceTable, cm.Source)
		}
		if !sourceCols[cm.Source] {
			return fmt.Errorf("mapping error: %s.%s: source column not present in extracted schema", mapping.SourceTable, cm.Source)
		}
		mappedSources[cm.Source] = true

		targetCanonical := cm.TargetCanonicalType
		if targetCanonical == "" {
			targetCanonical = cm.CanonicalType
		}
		if !canonical.Type(targetCanonical).Valid() {
			return fmt.Errorf("mapping error: %s.%s: target canonical type %q is not valid", mapping.SourceTable, cm.Source, targetCanonical)
		}
		if _, ok := canonical.Lookup(canonical.Type(cm.CanonicalType), canonical.Type(targetCanonical)); !ok {
			return fmt.Errorf("mapping error: %s.%s: no registered row transform from %q to %q", mapping.SourceTable, cm.Source, cm.CanonicalType, targetCanonical)
		}
	}

	for name := range sourceCols {
		if !mappedSources[name] {
			return fmt.Errorf("mapping error: %s.%s: source column has no mapping entry", mapping.SourceTable, name)
		}
	}

	return nil
}

// Store manages draft/approved mapping artifacts for one run.
type Store struct {
	MappingsDir string // mappings/<run_id>
}

func (s *Store) draftPath(table string) string    { return filepath.Join(s.MappingsDir, "draft", table+".json") }
func (s *Store) approvedPath(table string) string { return filepath.Join(s.MappingsDir, "approved", table+".json") }

// SaveDraft persists a proposed mapping for later review.
func (s *Store) SaveDraft(mapping *model.Mapping) error {
	return writeJSON(s.draftPath(mapping.SourceTable), mapping)
}

// Approve validates the draft mapping for table against spec, then
// atomically promotes it to approved via rename — a partially-approved
// mapping is never visible to apply-schema/migrate.
func (s *Store) Approve(spec *model.TableSpec, table string) error {
	raw, err := os.ReadFile(s.draftPath(table))
	if err != nil {
		return fmt.Errorf("read draft mapping for %s: %w", table, err)
	}
	var mapping model.Mapping
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return fmt.Errorf("parse draft mapping for %s: %w", table, err)
	}
	if err := ValidateMapping(spec, &mapping); err != nil {
		return err
	}

	dst := s.approvedPath(table)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(s.draftPath(table), dst); err != nil {
		return fmt.Errorf("promote mapping for %s: %w", table, err)
	}
	return nil
}

// ApproveResult records the outcome of approving one table.
type ApproveResult struct {
	Table string
	Err   error
}

// ApproveAll approves every table in specs, collecting per-table errors
// without aborting the batch — the same "warn and continue" loop shape
// as cmd/clean.go's per-table truncation loop.
func (s *Store) ApproveAll(specs map[string]*model.TableSpec) []ApproveResult {
	results := make([]ApproveResult, 0, len(specs))
	for table, spec := range specs {
		err := s.Approve(spec, table)
		results = append(results, ApproveResult{Table: table, Err: err})
	}
	return results
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
