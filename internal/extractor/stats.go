package extractor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dbmig/internal/model"
)

// CollectStats gathers column statistics — null rate, distinct count,
// min/max — using aggregate queries that scan the table server-side
// rather than pulling a client-side row sample (a divergence from
// original_source/src/extractor.py's get_column_stats sampling
// approach). Only the row count comes from the catalog estimate; the
// per-column figures are not catalog-derived.
func (e *Extractor) CollectStats(ctx context.Context, spec *model.TableSpec) (*model.TableStats, error) {
	rowCount, err := e.source.RowCountEstimate(ctx, spec.Schema, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("row count estimate for stats: %w", err)
	}

	stats := &model.TableStats{Table: spec.Name}
	for _, col := range spec.Columns {
		cs := model.ColumnStats{Column: col.Name}

		nonNull, err := e.source.Aggregate(ctx, spec.Schema, spec.Name, col.Name, "COUNT")
		if err != nil {
			e.log.Warn("stats: count failed", zap.String("table", spec.Name), zap.String("column", col.Name), zap.Error(err))
		} else if rowCount > 0 {
			if n, ok := toInt64(nonNull); ok {
				cs.NullRate = 1.0 - float64(n)/float64(rowCount)
			}
		}

		if distinct, err := e.source.Aggregate(ctx, spec.Schema, spec.Name, col.Name, "COUNT_DISTINCT"); err == nil {
			if n, ok := toInt64(distinct); ok {
				cs.DistinctCount = n
			}
		}

		if isOrderable(col.CanonicalType) {
			if minVal, err := e.source.Aggregate(ctx, spec.Schema, spec.Name, col.Name, "MIN"); err == nil && minVal != nil {
				cs.Min = fmt.Sprintf("%v", minVal)
			}
			if maxVal, err := e.source.Aggregate(ctx, spec.Schema, spec.Name, col.Name, "MAX"); err == nil && maxVal != nil {
				cs.Max = fmt.Sprintf("%v", maxVal)
			}
		}
		if col.Length > cs.MaxLength {
			cs.MaxLength = col.Length
		}

		stats.Columns = append(stats.Columns, cs)
	}
	return stats, nil
}

func isOrderable(canonicalType string) bool {
	switch canonicalType {
	case "INT8", "INT4", "INT2", "INT1", "DECIMAL", "FLOAT8", "FLOAT4", "DATE", "TIME", "DATETIME", "DATETIMETZ", "TEXT":
		return true
	default:
		return false
	}
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}
