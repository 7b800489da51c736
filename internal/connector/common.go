package connector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeebo/xxh3"

	"dbmig/internal/canonical"
)

// sqlRowIterator adapts *sql.Rows into a RowIterator, decoding each row
// into a column-name-keyed map using sql.ColumnType for scan targets.
type sqlRowIterator struct {
	rows    *sql.Rows
	cols    []string
	scanBuf []any
	current map[string]any
	err     error
}

func newSQLRowIterator(rows *sql.Rows) (RowIterator, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	buf := make([]any, len(cols))
	for i := range buf {
		buf[i] = new(any)
	}
	return &sqlRowIterator{rows: rows, cols: cols, scanBuf: buf}, nil
}

func (it *sqlRowIterator) Next() bool {
	if !it.rows.Next() {
		return false
	}
	if err := it.rows.Scan(it.scanBuf...); err != nil {
		it.err = err
		return false
	}
	row := make(map[string]any, len(it.cols))
	for i, name := range it.cols {
		ptr := it.scanBuf[i].(*any)
		row[name] = normalizeScanned(*ptr)
	}
	it.current = row
	return true
}

func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func (it *sqlRowIterator) Row() map[string]any { return it.current }
func (it *sqlRowIterator) Err() error           { return it.err }
func (it *sqlRowIterator) Close() error         { return it.rows.Close() }

// runAggregate executes SUM/MIN/MAX/COUNT/COUNT_DISTINCT the way
// original_source/src/connectors/target/mysql.py's run_aggregate does,
// generalized across engines since the SQL is ANSI-standard enough to
// share; quote picks the caller's dialect-specific identifier quoting
// (double quotes on Postgres/MSSQL default to different characters, and
// MySQL rejects double-quoted identifiers outside ANSI_QUOTES mode, so
// a single hardcoded quoter here would silently break on two of three
// engines).
func runAggregate(ctx context.Context, db *sql.DB, table, column, fn string, quote func(string) string) (any, error) {
	col := column
	if col != "*" {
		col = quote(col)
	}
	var query string
	if fn == "COUNT_DISTINCT" {
		query = fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s", col, table)
	} else {
		query = fmt.Sprintf("SELECT COALESCE(%s(%s), 0) FROM %s", fn, col, table)
	}
	var result any
	if err := db.QueryRowContext(ctx, query).Scan(&result); err != nil {
		return nil, err
	}
	return normalizeScanned(result), nil
}

// sampleHashByKeys hashes hashCols for each row identified by keys
// (pkCols values), returning key-tuple -> xxh3 hash. Used by C8's L3
// sample-hash validation on both sides of a migrated table. transforms,
// when non-nil, is applied positionally to hashCols before hashing —
// the source side passes its columns' registered TransformFuncs so its
// hash lands in the same representation the target side was loaded
// with; the target side passes nil since its scanned values are
// already in that representation.
func sampleHashByKeys(ctx context.Context, db *sql.DB, table string, pkCols, hashCols []string, transforms []canonical.TransformFunc, keys [][]any, placeholder func(int) string) (map[string]uint64, error) {
	return sampleHashByKeysQuoted(ctx, db, table, pkCols, hashCols, transforms, keys, placeholder, quoteIdent, quoteIdentList)
}

func sampleHashByKeysQuoted(ctx context.Context, db *sql.DB, table string, pkCols, hashCols []string, transforms []canonical.TransformFunc, keys [][]any, placeholder func(int) string, quote func(string) string, quoteList func([]string) string) (map[string]uint64, error) {
	if len(keys) == 0 {
		return map[string]uint64{}, nil
	}
	allCols := append(append([]string{}, pkCols...), hashCols...)
	out := make(map[string]uint64, len(keys))

	for _, key := range keys {
		parts := make([]string, len(pkCols))
		for i, c := range pkCols {
			parts[i] = fmt.Sprintf("%s = %s", quote(c), placeholder(i+1))
		}
		query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
			quoteList(allCols), table, joinAnd(parts))

		row := db.QueryRowContext(ctx, query, key...)
		vals := make([]any, len(allCols))
		ptrs := make([]any, len(allCols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := row.Scan(ptrs...); err != nil {
			continue // row missing on this side — validator reports it as absent
		}
		for i := range vals {
			vals[i] = normalizeScanned(vals[i])
		}
		keyStr := fmt.Sprintf("%v", key)
		hashed := vals[len(pkCols):]
		if transforms != nil {
			for i, fn := range transforms {
				if fn == nil {
					continue
				}
				v, err := fn(hashed[i])
				if err != nil {
					continue // unhashable after transform — leave raw, mismatch surfaces the row
				}
				hashed[i] = v
			}
		}
		out[keyStr] = xxh3.Hash(canonical.CanonicalRowKey(hashed))
	}
	return out, nil
}

func joinAnd(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " AND "
		}
		out += p
	}
	return out
}
