package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"dbmig/internal/dberrors"
	"dbmig/internal/model"
	"dbmig/internal/progress"
	"dbmig/internal/validator"
)

var validateLevel string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compare source and target data at the configured level(s)",
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := readSchemaArtifacts(pl.Paths.Schemas())
		if err != nil {
			return dberrors.New(dberrors.CategorySchema, "", err)
		}
		mappings, err := readApprovedMappings(filepath.Join(pl.Paths.Mappings(), "approved"))
		if err != nil {
			return dberrors.New(dberrors.CategoryMapping, "", err)
		}
		mappingByName := make(map[string]*model.Mapping, len(mappings))
		for _, m := range mappings {
			mappingByName[m.SourceTable] = m
		}

		cfg := pl.Cfg.Validation
		switch validateLevel {
		case "L1":
			cfg.SampleSize = 0
		case "L2":
			cfg.SampleSize = 0
		case "", "L3":
			// full L1+L2+L3, the default
		default:
			return fmt.Errorf("unknown --level %q, want one of L1, L2, L3", validateLevel)
		}

		v := validator.New(pl.Source, pl.Target, pl.Cfg.Source.Schema, pl.Paths.RunID, cfg, pl.Log)

		bar := progress.NewUIBar()
		bar.Total(len(specs))
		concurrency := pl.Cfg.Migration.TableParallelism
		results, err := v.ValidateAll(cmd.Context(), specs, mappingByName, concurrency)
		for _, r := range results {
			bar.TableDone(r.SourceTable, nil)
		}
		bar.Stop()
		if err != nil {
			return dberrors.New(dberrors.CategoryValidation, "", err)
		}

		reporter := validator.NewReportWriter(pl.Paths.Reports())
		var failed int
		for _, r := range results {
			if err := reporter.WriteTableResult(r); err != nil {
				return dberrors.New(dberrors.CategoryValidation, r.SourceTable, err)
			}
			if !r.Pass {
				failed++
			}
		}
		if err := reporter.WriteSummary(results); err != nil {
			return dberrors.New(dberrors.CategoryValidation, "", err)
		}

		fmt.Printf("validated %d tables (%d failed) — report: %s\n", len(results), failed, pl.Paths.Reports())
		if failed > 0 {
			return dberrors.New(dberrors.CategoryValidation, "", fmt.Errorf("%d table(s) failed validation", failed))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateLevel, "level", "", "validation depth: L1 or L2 run the row-count and aggregate checks and skip the sample hash; L3 (the default) also runs the sample hash")
}
