package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dbmig/internal/dberrors"
	"dbmig/internal/model"
	"dbmig/internal/schemagen"
)

var (
	applySchemaDryRun bool
	applySchemaApply  bool
)

var applySchemaCmd = &cobra.Command{
	Use:   "apply-schema",
	Short: "Render (and optionally apply) target DDL from approved mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun := !applySchemaApply || (applySchemaDryRun && cmd.Flags().Changed("dry-run"))

		specs, err := readSchemaArtifacts(pl.Paths.Schemas())
		if err != nil {
			return dberrors.New(dberrors.CategorySchema, "", err)
		}
		specByName := make(map[string]*model.TableSpec, len(specs))
		for _, s := range specs {
			specByName[s.Name] = s
		}

		mappings, err := readApprovedMappings(filepath.Join(pl.Paths.Mappings(), "approved"))
		if err != nil {
			return dberrors.New(dberrors.CategoryMapping, "", err)
		}
		if len(mappings) == 0 {
			return dberrors.New(dberrors.CategoryMapping, "", fmt.Errorf("no approved mappings found under %s; run 'validate-mapping' first", pl.Paths.Mappings()))
		}
		mappingByName := make(map[string]*model.Mapping, len(mappings))
		for _, m := range mappings {
			mappingByName[m.SourceTable] = m
		}

		gen := schemagen.New(pl.Target, pl.Cfg.Target.Database)

		if err := os.MkdirAll(pl.Paths.DDL(), 0o755); err != nil {
			return dberrors.New(dberrors.CategoryDDL, "", err)
		}

		var deferredFKs []string
		for table, mapping := range mappingByName {
			spec, ok := specByName[table]
			if !ok {
				continue
			}
			fkStmts := schemagen.BuildFKStatements(spec, mapping, pl.Cfg.Target.Database, mappingByName)
			ddl := schemagen.RenderAll(mapping, pl.Cfg.Target.Database, fkStmts)
			if err := os.WriteFile(filepath.Join(pl.Paths.DDL(), table+".sql"), []byte(ddl), 0o644); err != nil {
				return dberrors.New(dberrors.CategoryDDL, table, err)
			}

			if dryRun {
				continue
			}
			if err := gen.Apply(cmd.Context(), spec, mapping, nil); err != nil {
				return dberrors.New(dberrors.CategoryDDL, table, err)
			}
			deferredFKs = append(deferredFKs, fkStmts...)
			pl.Log.Info("applied schema", zap.String("table", table))
		}
		for _, stmt := range deferredFKs {
			if err := pl.Target.ExecDDL(cmd.Context(), stmt); err != nil {
				return dberrors.New(dberrors.CategoryDDL, "", fmt.Errorf("apply foreign key: %w", err))
			}
		}

		if dryRun {
			fmt.Printf("rendered ddl for %d tables under %s (dry run, nothing applied)\n", len(mappingByName), pl.Paths.DDL())
		} else {
			fmt.Printf("applied schema for %d tables\n", len(mappingByName))
		}
		return nil
	},
}

func readApprovedMappings(dir string) ([]*model.Mapping, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var mappings []*model.Mapping
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var m model.Mapping
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		mappings = append(mappings, &m)
	}
	return mappings, nil
}

func init() {
	RootCmd.AddCommand(applySchemaCmd)
	applySchemaCmd.Flags().BoolVar(&applySchemaDryRun, "dry-run", true, "render DDL without applying it")
	applySchemaCmd.Flags().BoolVar(&applySchemaApply, "apply", false, "apply the rendered DDL to the target")
}
