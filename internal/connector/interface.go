// Package connector abstracts database-specific extraction and loading
// operations behind SourceConnector and TargetConnector, generalizing
// internal/dialect.Dialect from schema-only introspection into the full
// extract/load/aggregate/hash surface this migration pipeline needs.
package connector

import (
	"context"

	"dbmig/internal/canonical"
	"dbmig/internal/model"
)

// RowIterator is a lazy pull cursor over a chunk of extracted rows.
type RowIterator interface {
	// Next advances to the next row. It returns false when the chunk is
	// exhausted; callers must check Err after a false return.
	Next() bool
	// Row returns the current row as column name -> native Go value.
	Row() map[string]any
	// Err returns the first error encountered, if any.
	Err() error
	// Close releases the underlying result set.
	Close() error
}

// SourceConnector is implemented once per supported source engine
// (postgres, mssql).
type SourceConnector interface {
	Engine() string
	Connect(ctx context.Context) error
	ListTables(ctx context.Context, schema string) ([]string, error)
	DescribeTable(ctx context.Context, schema, table string) (*model.TableSpec, error)
	RowCountEstimate(ctx context.Context, schema, table string) (int64, error)
	// StreamRows opens a cursor over one chunk of rows, ordered by pkCols
	// ascending. If lastPK is non-nil, rows are filtered to pk > lastPK
	// (keyset pagination); otherwise offset/limit paging is used.
	StreamRows(ctx context.Context, schema, table string, columns []string, pkCols []string, lastPK []any, offset int64, limit int) (RowIterator, error)
	Aggregate(ctx context.Context, schema, table, column, fn string) (any, error)
	// SampleHash hashes hashCols for each row in keys. transforms holds
	// each hashCols entry's registered canonical TransformFunc, applied
	// before hashing so the result is comparable against
	// TargetConnector.SampleHash's already-transformed values.
	SampleHash(ctx context.Context, schema, table string, pkCols, hashCols []string, transforms []canonical.TransformFunc, keys [][]any) (map[string]uint64, error)
	Close() error
}

// TargetConnector is implemented once for the MySQL target.
type TargetConnector interface {
	Engine() string
	Connect(ctx context.Context) error
	ExecDDL(ctx context.Context, stmt string) error
	// BulkLoad inserts rows and returns the count actually inserted plus
	// per-row failures narrowed to a cause, never an all-or-nothing
	// count.
	BulkLoad(ctx context.Context, table string, columns []string, rows []map[string]any) (loaded int, failed []RowFailure, err error)
	RowCount(ctx context.Context, table string) (int64, error)
	Aggregate(ctx context.Context, table, column, fn string) (any, error)
	SampleHash(ctx context.Context, table string, pkCols, hashCols []string, keys [][]any) (map[string]uint64, error)
	ToggleFK(ctx context.Context, enabled bool) error
	Close() error
}

// RowFailure narrows one bulk_load row failure to a cause, so the
// migrator can classify it into internal/dberrors.LoadKind for the DLQ.
type RowFailure struct {
	Index int
	Kind  string // "constraint_violation", "type_conversion", "encoding", "unknown"
	Err   error
}
