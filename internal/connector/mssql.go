package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"dbmig/internal/canonical"
	"dbmig/internal/model"
)

// MSSQLSource implements SourceConnector against SQL Server, grounded
// on internal/dialect/mssql.go's INFORMATION_SCHEMA/sys.* queries.
type MSSQLSource struct {
	db     *sql.DB
	schema string
}

func (m *MSSQLSource) Engine() string { return "mssql" }

func (m *MSSQLSource) Connect(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MSSQLSource) ListTables(ctx context.Context, schema string) ([]string, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`,
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

const mssqlColumnsQuery = `
SELECT
    c.COLUMN_NAME,
    c.DATA_TYPE,
    COALESCE(c.CHARACTER_MAXIMUM_LENGTH, 0),
    COALESCE(c.NUMERIC_PRECISION, 0),
    COALESCE(c.NUMERIC_SCALE, 0),
    CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END,
    CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 1 ELSE 0 END,
    COLUMNPROPERTY(OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME), c.COLUMN_NAME, 'IsIdentity')
FROM INFORMATION_SCHEMA.COLUMNS c
LEFT JOIN (
    SELECT kcu.TABLE_NAME, kcu.COLUMN_NAME
    FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
    WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = @p1 AND tc.TABLE_NAME = @p2
) pk ON pk.TABLE_NAME = c.TABLE_NAME AND pk.COLUMN_NAME = c.COLUMN_NAME
WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
ORDER BY c.ORDINAL_POSITION`

const mssqlForeignKeysQuery = `
SELECT RC.CONSTRAINT_NAME, KCU1.COLUMN_NAME, KCU2.TABLE_NAME, KCU2.COLUMN_NAME
FROM INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS RC
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE KCU1 ON RC.CONSTRAINT_NAME = KCU1.CONSTRAINT_NAME
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE KCU2 ON RC.UNIQUE_CONSTRAINT_NAME = KCU2.CONSTRAINT_NAME
WHERE KCU1.TABLE_SCHEMA = @p1 AND KCU1.TABLE_NAME = @p2`

func (m *MSSQLSource) DescribeTable(ctx context.Context, schema, table string) (*model.TableSpec, error) {
	rows, err := m.db.QueryContext(ctx, mssqlColumnsQuery, schema, table)
	if err != nil {
		return nil, fmt.Errorf("describe columns %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	spec := &model.TableSpec{Schema: schema, Name: table}
	for rows.Next() {
		var col model.ColumnSpec
		var length, precision, scale int
		var nullable, isPK, isIdentity int
		if err := rows.Scan(&col.Name, &col.SourceType, &length, &precision, &scale,
			&nullable, &isPK, &isIdentity); err != nil {
			return nil, err
		}
		col.Length, col.Precision, col.Scale = length, precision, scale
		col.Nullable = nullable == 1
		col.IsPrimaryKey = isPK == 1
		col.IsAutoIncr = isIdentity == 1
		parsed, loss := canonical.MSSQLToCanonical(col.SourceType, length, precision, scale)
		col.CanonicalType = string(parsed.Type)
		col.Loss = loss.String()
		spec.Columns = append(spec.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fkRows, err := m.db.QueryContext(ctx, mssqlForeignKeysQuery, schema, table)
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

func (m *MSSQLSource) RowCountEstimate(ctx context.Context, schema, table string) (int64, error) {
	var est sql.NullInt64
	err := m.db.QueryRowContext(ctx, `
SELECT SUM(ps.row_count)
FROM sys.dm_db_partition_stats ps
JOIN sys.tables t ON t.object_id = ps.object_id
JOIN sys.schemas s ON s.schema_id = t.schema_id
WHERE s.name = @p1 AND t.name = @p2 AND ps.index_id IN (0, 1)`, schema, table).Scan(&est)
	if err != nil {
		return 0, err
	}
	return est.Int64, nil
}

func mssqlPlaceholder(i int) string { return fmt.Sprintf("@p%d", i) }

func (m *MSSQLSource) StreamRows(ctx context.Context, schema, table string, columns []string, pkCols []string, lastPK []any, offset int64, limit int) (RowIterator, error) {
	cols := quoteIdentBracket(columns)
	orderCols := pkCols
	if len(orderCols) == 0 {
		orderCols = columns
	}

	var query string
	var args []any
	if len(pkCols) > 0 && lastPK != nil {
		where := mssqlKeysetWhere(pkCols, 1)
		query = fmt.Sprintf(`SELECT %s FROM %s.%s WHERE %s ORDER BY %s OFFSET 0 ROWS FETCH NEXT @p%d ROWS ONLY`,
			cols, bracket(schema), bracket(table), where, quoteIdentBracket(pkCols), len(lastPK)+1)
		args = append(append([]any{}, lastPK...), limit)
	} else {
		query = fmt.Sprintf(`SELECT %s FROM %s.%s ORDER BY %s OFFSET @p1 ROWS FETCH NEXT @p2 ROWS ONLY`,
			cols, bracket(schema), bracket(table), quoteIdentBracket(orderCols))
		args = []any{offset, limit}
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return newSQLRowIterator(rows)
}

// mssqlKeysetWhere builds an OR-of-ANDs expansion of the row-wise
// comparison (col1, col2, ...) > (v1, v2, ...), since T-SQL has no
// native row constructor comparison.
func mssqlKeysetWhere(pkCols []string, startIdx int) string {
	var clauses []string
	for i := range pkCols {
		var parts []string
		for j := 0; j < i; j++ {
			parts = append(parts, fmt.Sprintf("%s = @p%d", bracket(pkCols[j]), startIdx+j))
		}
		parts = append(parts, fmt.Sprintf("%s > @p%d", bracket(pkCols[i]), startIdx+i))
		clauses = append(clauses, "("+strings.Join(parts, " AND ")+")")
	}
	return strings.Join(clauses, " OR ")
}

func bracket(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" }

func quoteIdentBracket(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = bracket(c)
	}
	return strings.Join(out, ", ")
}

func (m *MSSQLSource) Aggregate(ctx context.Context, schema, table, column, fn string) (any, error) {
	return runAggregate(ctx, m.db, fmt.Sprintf("%s.%s", bracket(schema), bracket(table)), column, fn, bracket)
}

func (m *MSSQLSource) SampleHash(ctx context.Context, schema, table string, pkCols, hashCols []string, transforms []canonical.TransformFunc, keys [][]any) (map[string]uint64, error) {
	return sampleHashByKeysQuoted(ctx, m.db, fmt.Sprintf("%s.%s", bracket(schema), bracket(table)), pkCols, hashCols, transforms, keys, mssqlPlaceholder, bracket, quoteIdentBracket)
}

func (m *MSSQLSource) Close() error { return m.db.Close() }
