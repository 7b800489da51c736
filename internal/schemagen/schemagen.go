// Package schemagen renders CREATE TABLE / index / foreign-key DDL from
// approved mappings and applies it to the MySQL target, grounded on
// original_source/src/connectors/target/mysql.py's render_create_table
// and render_indexes.
package schemagen

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"dbmig/internal/connector"
	"dbmig/internal/model"
)

// mysqlTextLikeTypes require an explicit prefix length when used as an
// index key, per original_source's render_indexes special case.
var mysqlTextLikeTypes = map[string]bool{
	"LONGTEXT": true, "MEDIUMTEXT": true, "TEXT": true, "TINYTEXT": true,
	"LONGBLOB": true, "MEDIUMBLOB": true, "BLOB": true, "TINYBLOB": true,
	"JSON": true,
}

// RenderCreateTable builds a single CREATE TABLE IF NOT EXISTS
// statement in source column order, with the primary key inline.
func RenderCreateTable(mapping *model.Mapping, schema string) string {
	var lines []string
	var pkCols []string
	for _, col := range mapping.Columns {
		nullable := ""
		if !col.Nullable {
			nullable = " NOT NULL"
		}
		auto := ""
		if col.AutoIncrement {
			auto = " AUTO_INCREMENT"
		}
		lines = append(lines, fmt.Sprintf("    `%s` %s%s%s", col.Target, col.TargetType, nullable, auto))
		if col.Role == "primary_key" {
			pkCols = append(pkCols, fmt.Sprintf("`%s`", col.Target))
		}
	}
	if len(pkCols) > 0 {
		lines = append(lines, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(pkCols, ", ")))
	}

	engine := mapping.MySQLEngine
	if engine == "" {
		engine = "InnoDB"
	}
	charset := mapping.MySQLCharset
	if charset == "" {
		charset = "utf8mb4"
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s`.`%s` (\n%s\n) ENGINE=%s DEFAULT CHARSET=%s;",
		schema, mapping.TargetTable, strings.Join(lines, ",\n"), engine, charset)
}

// RenderIndexes builds one CREATE [UNIQUE] INDEX statement per index
// entry, adding a MySQL prefix length for TEXT/BLOB/JSON-typed columns.
func RenderIndexes(mapping *model.Mapping, schema string) []string {
	colTypes := make(map[string]string, len(mapping.Columns))
	for _, c := range mapping.Columns {
		colTypes[c.Target] = strings.ToUpper(c.TargetType)
	}

	var stmts []string
	for _, idx := range mapping.Indexes {
		if len(idx.Columns) == 0 {
			continue
		}
		var parts []string
		for _, c := range idx.Columns {
			base := strings.ToUpper(strings.SplitN(colTypes[c], "(", 2)[0])
			if mysqlTextLikeTypes[base] {
				parts = append(parts, fmt.Sprintf("`%s`(64)", c))
			} else {
				parts = append(parts, fmt.Sprintf("`%s`", c))
			}
		}
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		stmts = append(stmts, fmt.Sprintf("CREATE %sINDEX `%s` ON `%s`.`%s` (%s);",
			unique, idx.Name, schema, mapping.TargetTable, strings.Join(parts, ", ")))
	}
	return stmts
}

// BuildFKStatements builds a trailing batch of ALTER TABLE ... ADD
// CONSTRAINT ... FOREIGN KEY statements from a TableSpec's foreign keys
// plus the mapping that renamed its columns, resolving referenced
// tables through tableToMapping so the generated SQL always points at
// a target table name that was actually created. Deferred so
// apply-schema never depends on table creation order.
func BuildFKStatements(spec *model.TableSpec, mapping *model.Mapping, schema string, tableToMapping map[string]*model.Mapping) []string {
	targetColByName := make(map[string]string, len(mapping.Columns))
	for _, c := range mapping.Columns {
		targetColByName[c.Source] = c.Target
	}

	var stmts []string
	for _, fk := range spec.ForeignKeys {
		refMapping, ok := tableToMapping[fk.RefTable]
		if !ok {
			continue // referenced table not migrated in this run; skip rather than fail apply-schema
		}
		refTargetCol := fk.RefColumn
		for _, c := range refMapping.Columns {
			if c.Source == fk.RefColumn {
				refTargetCol = c.Target
				break
			}
		}
		localCol := targetColByName[fk.Column]
		if localCol == "" {
			continue
		}
		name := fmt.Sprintf("fk_%s_%s", mapping.TargetTable, fk.Column)
		stmts = append(stmts, fmt.Sprintf(
			"ALTER TABLE `%s`.`%s` ADD CONSTRAINT `%s` FOREIGN KEY (`%s`) REFERENCES `%s`.`%s` (`%s`);",
			schema, mapping.TargetTable, name, localCol, schema, refMapping.TargetTable, refTargetCol))
	}
	sort.Strings(stmts)
	return stmts
}

// Generator drives apply-schema against the target connector.
type Generator struct {
	target connector.TargetConnector
	schema string
}

func New(target connector.TargetConnector, schema string) *Generator {
	return &Generator{target: target, schema: schema}
}

// Apply executes the CREATE TABLE, index, and deferred FK statements
// for one table, in that order, stopping on the first DDLError — DDL
// failures are stage-fatal, unlike mapping/load failures which are
// isolated per table.
func (g *Generator) Apply(ctx context.Context, spec *model.TableSpec, mapping *model.Mapping, fkStmts []string) error {
	stmts := []string{RenderCreateTable(mapping, g.schema)}
	stmts = append(stmts, RenderIndexes(mapping, g.schema)...)
	stmts = append(stmts, fkStmts...)

	for _, stmt := range stmts {
		if err := g.target.ExecDDL(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl for %s: %w", mapping.TargetTable, err)
		}
	}
	return nil
}

// RenderAll returns every DDL statement for one table without applying
// it — used by the dry-run path, which writes ddl/<run_id>/<table>.sql.
func RenderAll(mapping *model.Mapping, schema string, fkStmts []string) string {
	var b strings.Builder
	b.WriteString(RenderCreateTable(mapping, schema))
	b.WriteString("\n\n")
	for _, s := range RenderIndexes(mapping, schema) {
		b.WriteString(s)
		b.WriteString("\n")
	}
	if len(fkStmts) > 0 {
		b.WriteString("\n")
		for _, s := range fkStmts {
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	return b.String()
}
