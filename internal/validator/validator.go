package validator

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dbmig/internal/config"
	"dbmig/internal/connector"
	"dbmig/internal/model"
)

// Validator runs L1/L2/L3 checks against one already-migrated table.
type Validator struct {
	Source connector.SourceConnector
	Target connector.TargetConnector
	Schema string
	RunID  string
	Cfg    config.ValidationConfig
	Log    *zap.Logger
}

func New(source connector.SourceConnector, target connector.TargetConnector, schema, runID string, cfg config.ValidationConfig, log *zap.Logger) *Validator {
	return &Validator{Source: source, Target: target, Schema: schema, RunID: runID, Cfg: cfg, Log: log}
}

// ValidateTable runs the three levels in order for one table and returns
// the combined result. Unless Cfg.ContinueOnFailure is set, a failing
// L1 check stops before L2, and a failing L2 check stops before L3.
// L3 degrades to a warning-only skip when the table
// has no primary key, since sample-hash needs a stable row identity to
// compare the same row on both sides.
func (v *Validator) ValidateTable(ctx context.Context, spec *model.TableSpec, mapping *model.Mapping) *model.ValidationResult {
	result := &model.ValidationResult{SourceTable: spec.Name, TargetTable: mapping.TargetTable}

	l1 := CheckRowCount(ctx, v.Source, v.Target, v.Schema, spec.Name, mapping.TargetTable, v.Cfg.RowCountTolerance)
	result.Checks = append(result.Checks, l1)
	if !l1.Pass && !v.Cfg.ContinueOnFailure {
		return result
	}

	l2 := CheckAggregates(ctx, v.Source, v.Target, v.Schema, spec.Name, mapping, v.Cfg.FloatTolerance)
	result.Checks = append(result.Checks, l2...)
	if !v.Cfg.ContinueOnFailure {
		for _, c := range l2 {
			if !c.Pass {
				return result
			}
		}
	}

	var pkCols []string
	for _, c := range spec.Columns {
		if c.IsPrimaryKey {
			pkCols = append(pkCols, c.Name)
		}
	}

	if len(pkCols) == 0 {
		result.Checks = append(result.Checks, model.ValidationCheck{
			Check:   "sample_hash",
			Pass:    true,
			Warning: true,
			Error:   "table has no primary key, sample-hash validation skipped",
		})
	} else {
		keys, err := SampleKeys(ctx, v.Source, v.Schema, spec.Name, pkCols, v.Cfg.SampleSize, v.RunID, v.Cfg.SeededSampling)
		if err != nil {
			result.Checks = append(result.Checks, model.ValidationCheck{Check: "sample_hash", Pass: false, Error: err.Error()})
		} else {
			result.Checks = append(result.Checks, CheckSampleHash(ctx, v.Source, v.Target, v.Schema, spec.Name, mapping, pkCols, keys, 20))
		}
	}

	result.Pass = true
	for _, c := range result.Checks {
		if !c.Pass {
			result.Pass = false
			break
		}
	}
	return result
}

// ValidateAll runs ValidateTable for every table on a bounded worker
// pool, the same table-level concurrency shape the migrator uses,
// instantiated per call rather than shared global state.
// A table whose L1 or L2 stage stopped early has Pass false.
func (v *Validator) ValidateAll(ctx context.Context, specs []*model.TableSpec, mappings map[string]*model.Mapping, concurrency int) ([]*model.ValidationResult, error) {
	results := make([]*model.ValidationResult, len(specs))
	if concurrency <= 0 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			mapping, ok := mappings[spec.Name]
			if !ok {
				results[i] = &model.ValidationResult{SourceTable: spec.Name, Pass: false, Checks: []model.ValidationCheck{{
					Check: "mapping_present", Error: "no approved mapping found for table",
				}}}
				return nil
			}
			results[i] = v.ValidateTable(gctx, spec, mapping)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
