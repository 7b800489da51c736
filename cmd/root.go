package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"dbmig/internal/config"
	"dbmig/internal/connector"
	"dbmig/internal/dberrors"
	"dbmig/internal/logging"
	"dbmig/internal/runregistry"
)

var (
	cfgFile  string
	runID    string
	logLevel string
	jsonLogs bool
)

// pipeline bundles everything a subcommand needs after PersistentPreRunE
// has connected both engines and resolved the run's artifact paths.
type pipeline struct {
	Cfg    *config.Config
	Log    *zap.Logger
	Source connector.SourceConnector
	Target connector.TargetConnector
	Paths  runregistry.Paths
}

var pl pipeline

var RootCmd = &cobra.Command{
	Use:   "dbmig",
	Short: "Heterogeneous database migration pipeline",
	Long: `dbmig moves a schema and its data from PostgreSQL or MSSQL into
MySQL through six stages: extract, propose, review, apply-schema,
migrate, validate. Each stage reads and writes artifacts under a
per-run directory so a failed run can be inspected and resumed.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "list-engines" {
			return nil
		}

		path := viper.GetString("config")
		if path == "" {
			path = defaultConfigPath()
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, cfg)

		if cmd.Name() == "show-checkpoints" {
			resolvedRunID := viper.GetString("run-id")
			if resolvedRunID == "" {
				var err error
				resolvedRunID, err = resolveRunID(cmd.Name(), cfg.Runs.ArtifactRoot)
				if err != nil {
					return dberrors.New(dberrors.CategoryConfig, "", err)
				}
			}
			pl = pipeline{Cfg: cfg, Paths: runregistry.NewPaths(cfg.Runs.ArtifactRoot, resolvedRunID)}
			return nil
		}

		log, err := logging.New(logging.Options{Level: logLevel, JSON: jsonLogs})
		if err != nil {
			return dberrors.New(dberrors.CategoryConfig, "", fmt.Errorf("build logger: %w", err))
		}

		srcDSN, err := config.DSN(cfg.Source)
		if err != nil {
			return dberrors.New(dberrors.CategoryConfig, "", err)
		}
		tgtDSN, err := config.DSN(cfg.Target)
		if err != nil {
			return dberrors.New(dberrors.CategoryConfig, "", err)
		}

		srcDB, err := sql.Open(driverFor(cfg.Source.Engine), srcDSN)
		if err != nil {
			return dberrors.New(dberrors.CategoryConnect, "", fmt.Errorf("open source: %w", err))
		}
		if err := srcDB.PingContext(cmd.Context()); err != nil {
			return dberrors.New(dberrors.CategoryConnect, "", fmt.Errorf("ping source: %w", err))
		}

		tgtDB, err := sql.Open(driverFor(cfg.Target.Engine), tgtDSN)
		if err != nil {
			return dberrors.New(dberrors.CategoryConnect, "", fmt.Errorf("open target: %w", err))
		}
		if err := tgtDB.PingContext(cmd.Context()); err != nil {
			return dberrors.New(dberrors.CategoryConnect, "", fmt.Errorf("ping target: %w", err))
		}

		source, err := connector.NewSource(cfg.Source, srcDB)
		if err != nil {
			return dberrors.New(dberrors.CategoryConfig, "", err)
		}
		target, err := connector.NewTarget(cfg.Target, tgtDB)
		if err != nil {
			return dberrors.New(dberrors.CategoryConfig, "", err)
		}

		resolvedRunID := viper.GetString("run-id")
		if resolvedRunID == "" {
			resolvedRunID, err = resolveRunID(cmd.Name(), cfg.Runs.ArtifactRoot)
			if err != nil {
				return dberrors.New(dberrors.CategoryConfig, "", err)
			}
		}

		log = logging.ForRun(log, resolvedRunID)
		pl = pipeline{
			Cfg:    cfg,
			Log:    log,
			Source: source,
			Target: target,
			Paths:  runregistry.NewPaths(cfg.Runs.ArtifactRoot, resolvedRunID),
		}
		return nil
	},
}

// resolveRunID mints a new run id for extract (the stage that starts a
// run) and otherwise reuses the last active run recorded in
// run_state.json, so a caller can chain `extract && propose && migrate`
// without repeating --run-id on every invocation.
func resolveRunID(cmdName, artifactRoot string) (string, error) {
	if cmdName == "extract" {
		id := runregistry.NewRunID(time.Now())
		return id, runregistry.SaveState(artifactRoot, id)
	}
	state, err := runregistry.LoadState(artifactRoot)
	if err != nil {
		return "", err
	}
	if state.LastRunID == "" {
		return "", fmt.Errorf("no active run found; pass --run-id or run 'extract' first")
	}
	return state.LastRunID, nil
}

// applyFlagOverrides lets per-command flags (--database, --schema) win
// over the config file, since a caller pointing the same config at a
// different schema for one-off extraction shouldn't need to edit YAML.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if f := cmd.Flags().Lookup("database"); f != nil && f.Changed {
		cfg.Source.Database = f.Value.String()
	}
	if f := cmd.Flags().Lookup("schema"); f != nil && f.Changed {
		cfg.Source.Schema = f.Value.String()
	}
}

func driverFor(engine string) string {
	switch engine {
	case "postgres":
		return "postgres"
	case "mssql":
		return "sqlserver"
	case "mysql":
		return "mysql"
	default:
		return engine
	}
}

func defaultConfigPath() string {
	if _, err := os.Stat("dbmig.yaml"); err == nil {
		return "dbmig.yaml"
	}
	if ex, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(ex), "dbmig.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "dbmig.yaml"
}

// Execute runs the CLI and translates the returned error's dberrors
// category into the process exit code every subcommand shares.
func Execute() {
	err := RootCmd.Execute()
	closeConnections()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	if cat, ok := dberrors.CategoryOf(err); ok {
		os.Exit(cat.ExitCode())
	}
	os.Exit(1)
}

func closeConnections() {
	if pl.Source != nil {
		_ = pl.Source.Close()
	}
	if pl.Target != nil {
		_ = pl.Target.Close()
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./dbmig.yaml)")
	RootCmd.PersistentFlags().StringVar(&runID, "run-id", "", "run id to operate on (default: last active run, or a new one for extract)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	RootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON logs instead of console output")

	_ = viper.BindPFlag("config", RootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("run-id", RootCmd.PersistentFlags().Lookup("run-id"))
}
