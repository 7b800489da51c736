// Package extractor drives the schema extraction stage: listing tables,
// describing their columns/keys, and estimating row counts, isolating
// per-table failures the way internal/schema.Analyze does rather than
// aborting the whole run.
package extractor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dbmig/internal/connector"
	"dbmig/internal/model"
)

// Extractor extracts the source schema for one run.
type Extractor struct {
	source connector.SourceConnector
	schema string
	log    *zap.Logger
}

func New(source connector.SourceConnector, schema string, log *zap.Logger) *Extractor {
	return &Extractor{source: source, schema: schema, log: log}
}

// ExtractSchema lists every base table in the configured schema and
// describes each one, recording a per-table extract_error instead of
// failing the run when a single table can't be introspected — the same
// isolation internal/schema/analyzer.go's Analyze applies to
// column/FK-query failures.
func (e *Extractor) ExtractSchema(ctx context.Context) ([]*model.TableSpec, error) {
	tables, err := e.source.ListTables(ctx, e.schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	specs := make([]*model.TableSpec, 0, len(tables))
	for _, name := range tables {
		select {
		case <-ctx.Done():
			return specs, ctx.Err()
		default:
		}

		spec, err := e.source.DescribeTable(ctx, e.schema, name)
		if err != nil {
			e.log.Warn("failed to describe table, recording and continuing", zap.String("table", name), zap.Error(err))
			spec = &model.TableSpec{Schema: e.schema, Name: name, ExtractError: err.Error()}
			specs = append(specs, spec)
			continue
		}

		if est, err := e.source.RowCountEstimate(ctx, e.schema, name); err != nil {
			e.log.Warn("row count estimate failed", zap.String("table", name), zap.Error(err))
		} else {
			spec.RowCountEstimate = est
		}

		specs = append(specs, spec)
	}
	return specs, nil
}
