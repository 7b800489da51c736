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
	"dbmig/internal/proposer"
)

var (
	proposeProvider string
	proposeModel    string
)

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Draft source-to-target column mappings for every extracted table",
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := readSchemaArtifacts(pl.Paths.Schemas())
		if err != nil {
			return dberrors.New(dberrors.CategorySchema, "", err)
		}
		if len(specs) == 0 {
			return fmt.Errorf("no schema artifacts found under %s; run 'extract' first", pl.Paths.Schemas())
		}

		if proposeProvider != "" && pl.Cfg.LLM.APIKey == "" {
			pl.Log.Warn("llm provider requested but no api key configured, using rule-based fallback for every table",
				zap.String("provider", proposeProvider))
		}

		// The LLM network client is an external collaborator (see
		// spec's Non-goals): only its contract is implemented, so the
		// proposer always runs with client == nil and every table goes
		// through the deterministic fallback.
		prop := proposer.New(nil, pl.Cfg.LLM.RateLimitPerSec, pl.Cfg.LLM.MaxRetries, pl.Log)

		draftDir := filepath.Join(pl.Paths.Mappings(), "draft")
		if err := os.MkdirAll(draftDir, 0o755); err != nil {
			return dberrors.New(dberrors.CategoryMapping, "", err)
		}

		var proposed int
		for _, spec := range specs {
			mapping, err := prop.Propose(cmd.Context(), spec)
			if err != nil {
				pl.Log.Error("propose failed for table", zap.String("table", spec.Name), zap.Error(err))
				continue
			}
			if err := writeArtifact(filepath.Join(draftDir, spec.Name+".json"), mapping); err != nil {
				pl.Log.Error("failed to write draft mapping", zap.String("table", spec.Name), zap.Error(err))
				continue
			}
			proposed++
		}

		fmt.Printf("proposed %d/%d table mappings for run %s\n", proposed, len(specs), pl.Paths.RunID)
		return nil
	},
}

func readSchemaArtifacts(dir string) ([]*model.TableSpec, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var specs []*model.TableSpec
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), "_") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var spec model.TableSpec
		if err := json.Unmarshal(raw, &spec); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		specs = append(specs, &spec)
	}
	return specs, nil
}

func init() {
	RootCmd.AddCommand(proposeCmd)
	proposeCmd.Flags().StringVar(&proposeProvider, "provider", "", "LLM provider name (no LLM client is built in: every table uses the rule-based fallback)")
	proposeCmd.Flags().StringVar(&proposeModel, "model", "", "LLM model name")
}
