package connector

import (
	"database/sql"
	"fmt"

	"dbmig/internal/config"
)

// NewSource builds the SourceConnector for cfg.Engine, generalizing
// internal/dialect/factory.go's GetDialect switch. Oracle is
// deliberately absent: it is not a supported source engine in this
// system.
func NewSource(cfg config.EngineConfig, db *sql.DB) (SourceConnector, error) {
	switch cfg.Engine {
	case "postgres":
		return &PostgresSource{db: db, schema: schemaOrDefault(cfg.Schema, "public")}, nil
	case "mssql":
		return &MSSQLSource{db: db, schema: schemaOrDefault(cfg.Schema, "dbo")}, nil
	default:
		return nil, fmt.Errorf("unsupported source engine %q", cfg.Engine)
	}
}

// NewTarget builds the TargetConnector for cfg.Engine. MySQL is the
// only supported migration target.
func NewTarget(cfg config.EngineConfig, db *sql.DB) (TargetConnector, error) {
	switch cfg.Engine {
	case "mysql":
		return &MySQLTarget{db: db, schema: cfg.Database}, nil
	default:
		return nil, fmt.Errorf("unsupported target engine %q", cfg.Engine)
	}
}

func schemaOrDefault(schema, def string) string {
	if schema == "" {
		return def
	}
	return schema
}

// EngineNames lists every engine this registry can construct, for the
// list-engines CLI command.
func EngineNames() map[string][]string {
	return map[string][]string{
		"source": {"postgres", "mssql"},
		"target": {"mysql"},
	}
}
