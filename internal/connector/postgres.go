package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"dbmig/internal/canonical"
	"dbmig/internal/model"
)

// PostgresSource implements SourceConnector against PostgreSQL,
// grounded on internal/dialect/postgres.go's information_schema queries
// generalized from schema-only introspection to full row streaming.
type PostgresSource struct {
	db     *sql.DB
	schema string
}

func (p *PostgresSource) Engine() string { return "postgres" }

func (p *PostgresSource) Connect(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresSource) ListTables(ctx context.Context, schema string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name`,
		schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

const pgColumnsQuery = `
SELECT
    c.column_name,
    c.data_type,
    COALESCE(c.character_maximum_length, 0),
    COALESCE(c.numeric_precision, 0),
    COALESCE(c.numeric_scale, 0),
    c.is_nullable = 'YES',
    COALESCE(pk.is_pk, false),
    c.column_default LIKE 'nextval%'
FROM information_schema.columns c
LEFT JOIN (
    SELECT kcu.column_name, true AS is_pk
    FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu
        ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
    WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1 AND tc.table_name = $2
) pk ON pk.column_name = c.column_name
WHERE c.table_schema = $1 AND c.table_name = $2
ORDER BY c.ordinal_position`

const pgForeignKeysQuery = `
SELECT kcu.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
FROM information_schema.key_column_usage kcu
JOIN information_schema.constraint_column_usage ccu ON kcu.constraint_name = ccu.constraint_name
JOIN information_schema.table_constraints tc ON kcu.constraint_name = tc.constraint_name
WHERE kcu.table_schema = $1 AND kcu.table_name = $2 AND tc.constraint_type = 'FOREIGN KEY'`

func (p *PostgresSource) DescribeTable(ctx context.Context, schema, table string) (*model.TableSpec, error) {
	rows, err := p.db.QueryContext(ctx, pgColumnsQuery, schema, table)
	if err != nil {
		return nil, fmt.Errorf("describe columns %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	spec := &model.TableSpec{Schema: schema, Name: table}
	for rows.Next() {
		var col model.ColumnSpec
		var length, precision, scale int
		if err := rows.Scan(&col.Name, &col.SourceType, &length, &precision, &scale,
			&col.Nullable, &col.IsPrimaryKey, &col.IsAutoIncr); err != nil {
			return nil, err
		}
		col.Length, col.Precision, col.Scale = length, precision, scale
		parsed, loss := canonical.PostgresToCanonical(col.SourceType, length, precision, scale)
		col.CanonicalType = string(parsed.Type)
		col.Loss = loss.String()
		spec.Columns = append(spec.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fkRows, err := p.db.QueryContext(ctx, pgForeignKeysQuery, schema, table)
	if err != nil {
		return nil, fmt.Errorf("describe foreign keys %s.%s: %w", schema, table, err)
	}
	defer fkRows.Close()
	for fkRows.Next() {
		var fk model.ForeignKeySpec
		if err := fkRows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, err
		}
		spec.ForeignKeys = append(spec.ForeignKeys, fk)
	}
	return spec, fkRows.Err()
}

func (p *PostgresSource) RowCountEstimate(ctx context.Context, schema, table string) (int64, error) {
	var est sql.NullInt64
	err := p.db.QueryRowContext(ctx,
		`SELECT reltuples::bigint FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace WHERE n.nspname = $1 AND c.relname = $2`,
		schema, table).Scan(&est)
	if err != nil {
		return 0, err
	}
	if est.Int64 < 0 {
		return 0, nil
	}
	return est.Int64, nil
}

func (p *PostgresSource) StreamRows(ctx context.Context, schema, table string, columns []string, pkCols []string, lastPK []any, offset int64, limit int) (RowIterator, error) {
	cols := quoteIdentList(columns)
	var query string
	var args []any

	if len(pkCols) > 0 && lastPK != nil {
		where, whereArgs := keysetWhere(pkCols, lastPK, 1)
		query = fmt.Sprintf(`SELECT %s FROM %s.%s WHERE %s ORDER BY %s LIMIT $%d`,
			cols, quoteIdent(schema), quoteIdent(table), where, quoteIdentList(pkCols), len(whereArgs)+1)
		args = append(whereArgs, limit)
	} else if len(pkCols) > 0 {
		query = fmt.Sprintf(`SELECT %s FROM %s.%s ORDER BY %s LIMIT $1 OFFSET $2`,
			cols, quoteIdent(schema), quoteIdent(table), quoteIdentList(pkCols))
		args = []any{limit, offset}
	} else {
		query = fmt.Sprintf(`SELECT %s FROM %s.%s ORDER BY %s LIMIT $1 OFFSET $2`,
			cols, quoteIdent(schema), quoteIdent(table), cols)
		args = []any{limit, offset}
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return newSQLRowIterator(rows)
}

func (p *PostgresSource) Aggregate(ctx context.Context, schema, table, column, fn string) (any, error) {
	return runAggregate(ctx, p.db, fmt.Sprintf("%s.%s", quoteIdent(schema), quoteIdent(table)), column, fn, quoteIdent)
}

func (p *PostgresSource) SampleHash(ctx context.Context, schema, table string, pkCols, hashCols []string, transforms []canonical.TransformFunc, keys [][]any) (map[string]uint64, error) {
	return sampleHashByKeys(ctx, p.db, fmt.Sprintf("%s.%s", quoteIdent(schema), quoteIdent(table)), pkCols, hashCols, transforms, keys, postgresPlaceholder)
}

func (p *PostgresSource) Close() error { return p.db.Close() }

func quoteIdent(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

func quoteIdentList(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return strings.Join(out, ", ")
}

func postgresPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }

func keysetWhere(pkCols []string, lastPK []any, startIdx int) (string, []any) {
	// Row-wise comparison: (a, b) > (v1, v2) — supported by both
	// Postgres and MySQL, but not by MSSQL, which builds an expanded
	// OR-chain in mssqlKeysetWhere instead.
	parts := make([]string, len(pkCols))
	for i := range pkCols {
		parts[i] = quoteIdent(pkCols[i])
	}
	placeholders := make([]string, len(pkCols))
	for i := range pkCols {
		placeholders[i] = postgresPlaceholder(startIdx + i)
	}
	where := fmt.Sprintf("(%s) > (%s)", strings.Join(parts, ", "), strings.Join(placeholders, ", "))
	return where, lastPK
}
