package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dbmig/internal/dberrors"
	"dbmig/internal/migrator"
	"dbmig/internal/model"
	"dbmig/internal/progress"
)

var (
	migrateTables    []string
	migrateChunkSize int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Load data from source to target in dependency order",
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := readSchemaArtifacts(pl.Paths.Schemas())
		if err != nil {
			return dberrors.New(dberrors.CategorySchema, "", err)
		}
		mappings, err := readApprovedMappings(filepath.Join(pl.Paths.Mappings(), "approved"))
		if err != nil {
			return dberrors.New(dberrors.CategoryMapping, "", err)
		}
		if len(mappings) == 0 {
			return dberrors.New(dberrors.CategoryMapping, "", fmt.Errorf("no approved mappings found under %s", pl.Paths.Mappings()))
		}

		specByName := make(map[string]*model.TableSpec, len(specs))
		for _, s := range specs {
			specByName[s.Name] = s
		}
		mappingByName := make(map[string]*model.Mapping, len(mappings))
		for _, m := range mappings {
			mappingByName[m.SourceTable] = m
		}

		targetSpecs := specs
		if len(migrateTables) > 0 {
			want := make(map[string]bool, len(migrateTables))
			for _, t := range migrateTables {
				want[strings.ToLower(t)] = true
			}
			targetSpecs = targetSpecs[:0]
			for _, s := range specs {
				if want[strings.ToLower(s.Name)] {
					targetSpecs = append(targetSpecs, s)
				}
			}
		}

		order := migrator.Order(targetSpecs, pl.Log)

		cfg := pl.Cfg.Migration
		if migrateChunkSize > 0 {
			cfg.ChunkSize = migrateChunkSize
		}

		checkpoints := &migrator.CheckpointStore{Dir: pl.Paths.Checkpoints()}
		dlq := migrator.NewDLQWriter(pl.Paths.DLQ())
		defer dlq.Close()

		m := migrator.New(pl.Source, pl.Target, checkpoints, dlq, cfg, pl.Log)

		bar := progress.NewUIBar()
		bar.Total(len(order.Order))
		defer bar.Stop()
		for _, table := range order.Order {
			bar.TableStarted(table)
		}

		if err := m.RunAll(cmd.Context(), order, specByName, mappingByName); err != nil {
			return err
		}
		for _, table := range order.Order {
			bar.TableDone(table, nil)
		}

		fmt.Printf("migrated %d tables for run %s (checkpoints: %s, dlq: %s)\n",
			len(order.Order), pl.Paths.RunID, pl.Paths.Checkpoints(), pl.Paths.DLQ())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringSliceVar(&migrateTables, "tables", nil, "restrict migration to these tables (comma-separated)")
	migrateCmd.Flags().IntVar(&migrateChunkSize, "chunk-size", 0, "override the configured chunk size")
}
