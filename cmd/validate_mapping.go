package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dbmig/internal/approval"
	"dbmig/internal/dberrors"
	"dbmig/internal/model"
)

var validateMappingCmd = &cobra.Command{
	Use:   "validate-mapping [table]",
	Short: "Validate draft mappings and promote the ones that pass to approved",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := readSchemaArtifacts(pl.Paths.Schemas())
		if err != nil {
			return dberrors.New(dberrors.CategorySchema, "", err)
		}
		byName := make(map[string]*model.TableSpec, len(specs))
		for _, s := range specs {
			byName[s.Name] = s
		}

		store := &approval.Store{MappingsDir: pl.Paths.Mappings()}

		if len(args) == 1 {
			table := args[0]
			spec, ok := byName[table]
			if !ok {
				return dberrors.New(dberrors.CategoryMapping, table, fmt.Errorf("no extracted schema for table %s", table))
			}
			if err := store.Approve(spec, table); err != nil {
				return dberrors.New(dberrors.CategoryMapping, table, err)
			}
			fmt.Printf("approved mapping for %s\n", table)
			return nil
		}

		results := store.ApproveAll(byName)
		var approved, failed int
		for _, r := range results {
			if r.Err != nil {
				pl.Log.Warn("mapping validation failed", zap.String("table", r.Table), zap.Error(r.Err))
				failed++
				continue
			}
			approved++
		}
		fmt.Printf("approved %d/%d mappings for run %s\n", approved, len(results), pl.Paths.RunID)
		if failed > 0 {
			return dberrors.New(dberrors.CategoryMapping, "", fmt.Errorf("%d mapping(s) failed validation", failed))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(validateMappingCmd)
}
