package config

import "fmt"

// DSN builds the database/sql connection string for one engine side.
// An explicit cfg.DSN always wins, so a config file can hand-tune driver
// options this builder doesn't know about; otherwise it's assembled
// from the discrete host/port/database/user/password fields the way
// cmd/root.go's old single-DSN flag never needed to, since this system
// connects to two engines at once.
func DSN(cfg EngineConfig) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	switch cfg.Engine {
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			cfg.User, cfg.Password, cfg.Host, port(cfg.Port, 5432), cfg.Database), nil
	case "mssql":
		return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
			cfg.User, cfg.Password, cfg.Host, port(cfg.Port, 1433), cfg.Database), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
			cfg.User, cfg.Password, cfg.Host, port(cfg.Port, 3306), cfg.Database), nil
	default:
		return "", fmt.Errorf("no dsn builder for engine %q", cfg.Engine)
	}
}

func port(p, def int) int {
	if p == 0 {
		return def
	}
	return p
}
