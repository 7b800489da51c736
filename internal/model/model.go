// Package model defines the on-disk artifact shapes shared by every
// pipeline stage: schema specs, mappings, checkpoints, and validation
// reports. These are plain structs with stable JSON field ordering —
// no behavior lives here.
package model

import "time"

// ColumnSpec describes one column as extracted from a source (or
// target) catalog.
type ColumnSpec struct {
	Name          string `json:"name"`
	SourceType    string `json:"source_type"`
	Length        int    `json:"length,omitempty"`
	Precision     int    `json:"precision,omitempty"`
	Scale         int    `json:"scale,omitempty"`
	Nullable      bool   `json:"nullable"`
	IsPrimaryKey  bool   `json:"is_primary_key"`
	IsAutoIncr    bool   `json:"is_auto_increment"`
	IsUnique      bool   `json:"is_unique"`
	Comment       string `json:"comment,omitempty"`
	CanonicalType string `json:"canonical_type,omitempty"`
	Loss          string `json:"loss,omitempty"`
}

// ForeignKeySpec is one FK edge from Table.Column to RefTable.RefColumn.
type ForeignKeySpec struct {
	Name       string `json:"name"`
	Column     string `json:"column"`
	RefTable   string `json:"ref_table"`
	RefColumn  string `json:"ref_column"`
}

// IndexSpec describes a non-PK index discovered on a table.
type IndexSpec struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// TableSpec is the per-table schema artifact written to
// schemas/<run_id>/<table>.json.
type TableSpec struct {
	Schema          string           `json:"schema"`
	Name            string           `json:"name"`
	Columns         []ColumnSpec     `json:"columns"`
	ForeignKeys     []ForeignKeySpec `json:"foreign_keys,omitempty"`
	Indexes         []IndexSpec      `json:"indexes,omitempty"`
	RowCountEstimate int64           `json:"row_count_estimate"`
	RawDDL          string           `json:"raw_ddl,omitempty"`
	ExtractError    string           `json:"extract_error,omitempty"`
}

// ColumnStats is the aggregate-query (never sampled-row) statistic set
// for one column, written to stats/<run_id>/<table>.json.
type ColumnStats struct {
	Column        string  `json:"column"`
	NullRate      float64 `json:"null_rate"`
	DistinctCount int64   `json:"distinct_count"`
	Min           string  `json:"min,omitempty"`
	Max           string  `json:"max,omitempty"`
	MaxLength     int     `json:"max_length,omitempty"`
}

// TableStats is the full stats artifact for one table.
type TableStats struct {
	Table   string        `json:"table"`
	Columns []ColumnStats `json:"columns"`
}

// ColumnMapping is one column's proposed or approved source→target
// binding.
type ColumnMapping struct {
	Source        string `json:"source"`
	Target        string `json:"target"`
	CanonicalType string `json:"canonical_type"`
	// TargetCanonicalType is the canonical type the value is coerced to
	// before loading (usually equal to CanonicalType; differs when the
	// target engine forces a widening, e.g. DATETIMETZ -> DATETIME).
	TargetCanonicalType string `json:"target_canonical_type"`
	TargetType    string `json:"target_type"`
	Nullable      bool   `json:"nullable"`
	AutoIncrement bool   `json:"auto_increment,omitempty"`
	Role          string `json:"role,omitempty"` // "primary_key", "indexed", "unique", ""
	Warning       string `json:"warning,omitempty"`
}

// Mapping is one table's full proposed/approved mapping, drafted by the
// proposer and promoted by the approval stage.
type Mapping struct {
	SourceTable  string          `json:"source_table"`
	TargetTable  string          `json:"target_table"`
	Columns      []ColumnMapping `json:"columns"`
	Indexes      []IndexSpec     `json:"indexes,omitempty"`
	MySQLEngine  string          `json:"mysql_engine,omitempty"`
	MySQLCharset string          `json:"mysql_charset,omitempty"`
	ProposedBy   string          `json:"proposed_by"` // "llm" or "rules"
	ApprovedAt   string          `json:"approved_at,omitempty"`
}

// CheckpointStatus is a table's migration state within a run.
type CheckpointStatus string

const (
	StatusPending CheckpointStatus = "pending"
	StatusRunning CheckpointStatus = "running"
	StatusDone    CheckpointStatus = "done"
	StatusFailed  CheckpointStatus = "failed"
)

// Checkpoint records per-table migration progress, persisted atomically
// so a crash never leaves it half-written. rows_loaded + rows_failed is
// non-decreasing across every write and never exceeds the source row
// count.
type Checkpoint struct {
	Table       string           `json:"table"`
	Status      CheckpointStatus `json:"status"`
	LastOffset  int64            `json:"last_offset"`
	LastPKValue string           `json:"last_pk_value,omitempty"`
	RowsLoaded  int64            `json:"rows_loaded"`
	RowsFailed  int64            `json:"rows_failed"`
	ChunkSize   int              `json:"chunk_size"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// DLQRecord is one row that failed to load, written to the per-table
// append-only DLQ CSV.
type DLQRecord struct {
	Table     string
	Offset    int64
	ErrorKind string
	Error     string
	Row       map[string]any
}

// ValidationCheck is one L1/L2/L3 assertion result.
type ValidationCheck struct {
	Check   string `json:"check"`
	Column  string `json:"column,omitempty"`
	Source  string `json:"source,omitempty"`
	Target  string `json:"target,omitempty"`
	Pass    bool   `json:"pass"`
	Warning bool   `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ValidationResult is the per-table validation outcome.
type ValidationResult struct {
	SourceTable string            `json:"source_table"`
	TargetTable string            `json:"target_table"`
	Checks      []ValidationCheck `json:"checks"`
	Pass        bool              `json:"pass"`
}

// RunState records the last active run for CLI resumption.
type RunState struct {
	LastRunID string    `json:"last_run_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
