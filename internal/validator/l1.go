// Package validator implements the three-level post-migration
// validation described in original_source/src/validator.py's
// validate_table: L1 row count, L2 numeric aggregates, L3 sample-hash.
package validator

import (
	"context"
	"fmt"
	"math"

	"dbmig/internal/connector"
	"dbmig/internal/model"
)

// CheckRowCount compares the exact source and target row counts,
// passing if the relative difference is within tolerance (0 means
// exact match required).
func CheckRowCount(ctx context.Context, src connector.SourceConnector, tgt connector.TargetConnector, schema, sourceTable, targetTable string, tolerance float64) model.ValidationCheck {
	check := model.ValidationCheck{Check: "row_count"}

	srcCount, err := src.Aggregate(ctx, schema, sourceTable, "*", "COUNT")
	if err != nil {
		check.Error = fmt.Sprintf("source count: %v", err)
		return check
	}
	tgtCount, err := tgt.RowCount(ctx, targetTable)
	if err != nil {
		check.Error = fmt.Sprintf("target count: %v", err)
		return check
	}

	sc := toInt64(srcCount)
	check.Source = fmt.Sprintf("%d", sc)
	check.Target = fmt.Sprintf("%d", tgtCount)

	if sc == tgtCount {
		check.Pass = true
		return check
	}
	if tolerance > 0 && sc > 0 {
		diff := math.Abs(float64(sc-tgtCount)) / float64(sc)
		if diff <= tolerance {
			check.Pass = true
			check.Warning = true
			return check
		}
	}
	check.Pass = false
	check.Error = fmt.Sprintf("row count mismatch: source=%d target=%d", sc, tgtCount)
	return check
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
