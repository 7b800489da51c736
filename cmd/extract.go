package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dbmig/internal/dberrors"
	"dbmig/internal/extractor"
	"dbmig/internal/progress"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the source schema, stats, and ancillary objects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		schema := pl.Cfg.Source.Schema

		ex := extractor.New(pl.Source, schema, pl.Log)
		specs, err := ex.ExtractSchema(ctx)
		if err != nil {
			return dberrors.New(dberrors.CategorySchema, "", err)
		}

		bar := progress.NewUIBar()
		bar.Total(len(specs))

		if err := os.MkdirAll(pl.Paths.Schemas(), 0o755); err != nil {
			bar.Stop()
			return dberrors.New(dberrors.CategorySchema, "", err)
		}
		if err := os.MkdirAll(pl.Paths.Stats(), 0o755); err != nil {
			bar.Stop()
			return dberrors.New(dberrors.CategorySchema, "", err)
		}

		var failed int
		for _, spec := range specs {
			bar.TableStarted(spec.Name)
			if err := writeArtifact(filepath.Join(pl.Paths.Schemas(), spec.Name+".json"), spec); err != nil {
				pl.Log.Error("failed to write schema artifact", zap.String("table", spec.Name), zap.Error(err))
				failed++
			}
			if spec.ExtractError == "" {
				if stats, err := ex.CollectStats(ctx, spec); err != nil {
					pl.Log.Warn("stats collection failed", zap.String("table", spec.Name), zap.Error(err))
				} else if err := writeArtifact(filepath.Join(pl.Paths.Stats(), spec.Name+".json"), stats); err != nil {
					pl.Log.Warn("failed to write stats artifact", zap.String("table", spec.Name), zap.Error(err))
				}
			}
			bar.TableDone(spec.Name, nil)
		}
		bar.Stop()

		anc := ex.ExtractAncillaryObjects(ctx)
		if len(anc.Views)+len(anc.Routines)+len(anc.Triggers) > 0 {
			if err := writeArtifact(filepath.Join(pl.Paths.Schemas(), "_ancillary.json"), anc); err != nil {
				pl.Log.Warn("failed to write ancillary objects artifact", zap.Error(err))
			}
		}

		fmt.Printf("extracted %d tables (%d schema write failures) for run %s\n", len(specs), failed, pl.Paths.RunID)
		return nil
	},
}

func writeArtifact(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func init() {
	RootCmd.AddCommand(extractCmd)
	extractCmd.Flags().String("database", "", "source database name override")
	extractCmd.Flags().String("schema", "", "source schema name override")
}
