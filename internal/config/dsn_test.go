package config

import "testing"

func TestDSNPrefersExplicitDSN(t *testing.T) {
	cfg := EngineConfig{Engine: "postgres", DSN: "postgres://explicit"}
	dsn, err := DSN(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dsn != "postgres://explicit" {
		t.Errorf("expected explicit dsn to win, got %q", dsn)
	}
}

func TestDSNBuildsFromDiscreteFieldsPerEngine(t *testing.T) {
	cases := []struct {
		cfg  EngineConfig
		want string
	}{
		{
			cfg:  EngineConfig{Engine: "postgres", Host: "db", Database: "app", User: "u", Password: "p"},
			want: "postgres://u:p@db:5432/app?sslmode=disable",
		},
		{
			cfg:  EngineConfig{Engine: "mssql", Host: "db", Port: 1433, Database: "app", User: "u", Password: "p"},
			want: "sqlserver://u:p@db:1433?database=app",
		},
		{
			cfg:  EngineConfig{Engine: "mysql", Host: "db", Database: "app", User: "u", Password: "p"},
			want: "u:p@tcp(db:3306)/app?parseTime=true&multiStatements=true",
		},
	}
	for _, c := range cases {
		got, err := DSN(c.cfg)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", c.cfg.Engine, err)
		}
		if got != c.want {
			t.Errorf("%s: expected %q, got %q", c.cfg.Engine, c.want, got)
		}
	}
}

func TestDSNRejectsUnknownEngine(t *testing.T) {
	if _, err := DSN(EngineConfig{Engine: "oracle"}); err == nil {
		t.Error("expected an error for an unsupported engine")
	}
}
