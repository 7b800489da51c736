package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// MySQLTarget implements TargetConnector against MySQL, grounded on
// original_source/src/connectors/target/mysql.py.
type MySQLTarget struct {
	db     *sql.DB
	schema string
}

func (m *MySQLTarget) Engine() string { return "mysql" }

func (m *MySQLTarget) Connect(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return err
	}
	_, err := m.db.ExecContext(ctx, "SET sql_require_primary_key = 0")
	return err
}

// idempotentDDLErrnos are MySQL errno values that ExecDDL warns about
// and continues past rather than aborting apply-schema: "the object
// already exists" (1050, 1061) and index-key length rejections (1071,
// 1170), per original_source/src/connectors/target/mysql.py's
// apply_ddl.
var idempotentDDLErrnos = map[uint16]bool{
	1061: true, // duplicate key name
	1050: true, // table already exists
	1071: true, // key too long
	1170: true, // BLOB/TEXT column used in key without length
}

func (m *MySQLTarget) ExecDDL(ctx context.Context, stmt string) error {
	_, err := m.db.ExecContext(ctx, stmt)
	if err == nil {
		return nil
	}
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) && idempotentDDLErrnos[me.Number] {
		return nil
	}
	return fmt.Errorf("exec ddl: %w", err)
}

func backtick(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" }

func backtickList(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = backtick(c)
	}
	return strings.Join(out, ", ")
}

// classifyMySQLError narrows a load-time error into the LoadKind
// taxonomy of internal/dberrors, following the errno buckets
// data-ingress/pkg/transfer/error.go uses for its CategorizeError.
func classifyMySQLError(err error) string {
	var me *mysqldriver.MySQLError
	if errors.As(err, &me) {
		switch {
		case me.Number == 1062 || me.Number == 1451 || me.Number == 1452 || me.Number == 1048:
			return "constraint_violation"
		case me.Number == 1366 || me.Number == 1264 || me.Number == 1406:
			return "type_conversion"
		case me.Number == 1300:
			return "encoding"
		}
	}
	return "unknown"
}

// BulkLoad inserts rows one statement per row inside a single
// transaction so a bad row can be identified and skipped without
// discarding the rest of the chunk, unlike the optimistic
// all-or-nothing executemany in original_source's bulk_load.
func (m *MySQLTarget) BulkLoad(ctx context.Context, table string, columns []string, rows []map[string]any) (int, []RowFailure, error) {
	if len(rows) == 0 {
		return 0, nil, nil
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, backtickList(columns), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return 0, nil, err
	}
	defer stmt.Close()

	var failures []RowFailure
	loaded := 0
	for i, row := range rows {
		args := make([]any, len(columns))
		for j, c := range columns {
			args[j] = row[c]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			failures = append(failures, RowFailure{Index: i, Kind: classifyMySQLError(err), Err: err})
			continue
		}
		loaded++
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("commit bulk load: %w", err)
	}
	return loaded, failures, nil
}

func (m *MySQLTarget) RowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	err := m.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	return n, err
}

func (m *MySQLTarget) Aggregate(ctx context.Context, table, column, fn string) (any, error) {
	return runAggregate(ctx, m.db, table, column, fn, backtick)
}

func (m *MySQLTarget) SampleHash(ctx context.Context, table string, pkCols, hashCols []string, keys [][]any) (map[string]uint64, error) {
	return sampleHashByKeysQuoted(ctx, m.db, table, pkCols, hashCols, nil, keys, mysqlPlaceholder, backtick, backtickList)
}

func mysqlPlaceholder(int) string { return "?" }

func (m *MySQLTarget) ToggleFK(ctx context.Context, enabled bool) error {
	val := "0"
	if enabled {
		val = "1"
	}
	_, err := m.db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = "+val)
	return err
}

func (m *MySQLTarget) Close() error { return m.db.Close() }
