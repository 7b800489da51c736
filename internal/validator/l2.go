package validator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dbmig/internal/connector"
	"dbmig/internal/model"
)

var numericCanonical = map[string]bool{
	"INT8": true, "INT4": true, "INT2": true, "INT1": true,
	"DECIMAL": true, "FLOAT8": true, "FLOAT4": true,
}

var temporalCanonical = map[string]bool{
	"DATE": true, "DATETIME": true, "DATETIMETZ": true,
}

// CheckAggregates runs SUM comparisons for numeric columns, MIN/MAX for
// numeric and temporal columns, and COUNT(DISTINCT) for primary-key or
// unique-role columns, per original_source/src/validator.py's
// validate_table aggregate pass. A column whose mapping already carries
// a loss Warning downgrades a mismatch here to a warning instead of a
// failure, since the divergence was already disclosed at review time.
func CheckAggregates(ctx context.Context, src connector.SourceConnector, tgt connector.TargetConnector, schema, sourceTable string, mapping *model.Mapping, floatTolerance float64) []model.ValidationCheck {
	var checks []model.ValidationCheck

	for _, col := range mapping.Columns {
		canon := strings.ToUpper(col.CanonicalType)
		lossy := col.Warning != ""

		if numericCanonical[canon] {
			checks = append(checks, compareAggregate(ctx, src, tgt, schema, sourceTable, mapping.TargetTable, col.Source, col.Target, "SUM", floatTolerance, lossy))
		}
		if numericCanonical[canon] || temporalCanonical[canon] {
			checks = append(checks, compareAggregate(ctx, src, tgt, schema, sourceTable, mapping.TargetTable, col.Source, col.Target, "MIN", floatTolerance, lossy))
			checks = append(checks, compareAggregate(ctx, src, tgt, schema, sourceTable, mapping.TargetTable, col.Source, col.Target, "MAX", floatTolerance, lossy))
		}
		if col.Role == "primary_key" || col.Role == "unique" {
			checks = append(checks, compareAggregate(ctx, src, tgt, schema, sourceTable, mapping.TargetTable, col.Source, col.Target, "COUNT_DISTINCT", floatTolerance, lossy))
		}
	}
	return checks
}

func compareAggregate(ctx context.Context, src connector.SourceConnector, tgt connector.TargetConnector, schema, sourceTable, targetTable, sourceCol, targetCol, fn string, floatTolerance float64, lossy bool) model.ValidationCheck {
	check := model.ValidationCheck{Check: strings.ToLower(fn), Column: targetCol}

	srcVal, err := src.Aggregate(ctx, schema, sourceTable, sourceCol, fn)
	if err != nil {
		check.Error = fmt.Sprintf("source aggregate: %v", err)
		return check
	}
	tgtVal, err := tgt.Aggregate(ctx, targetTable, targetCol, fn)
	if err != nil {
		check.Error = fmt.Sprintf("target aggregate: %v", err)
		return check
	}

	check.Source = fmt.Sprintf("%v", srcVal)
	check.Target = fmt.Sprintf("%v", tgtVal)

	match, comparable := compareValues(srcVal, tgtVal, floatTolerance)
	if !comparable {
		check.Pass = true
		check.Warning = true
		check.Error = "values not directly comparable, skipped"
		return check
	}
	if match {
		check.Pass = true
		return check
	}
	if lossy {
		check.Pass = true
		check.Warning = true
		check.Error = fmt.Sprintf("%s mismatch tolerated on known-lossy column", fn)
		return check
	}
	check.Pass = false
	check.Error = fmt.Sprintf("%s mismatch: source=%v target=%v", fn, srcVal, tgtVal)
	return check
}

// compareValues tries a timestamp comparison first (second-granularity,
// per original_source's _normalise_ts), then a decimal comparison with
// relative tolerance, falling back to string equality for anything
// else. The second return value reports whether either side could be
// parsed at all.
func compareValues(a, b any, tolerance float64) (match, comparable bool) {
	ta, taok := parseTimestamp(a)
	tb, tbok := parseTimestamp(b)
	if taok && tbok {
		return ta.Truncate(time.Second).Equal(tb.Truncate(time.Second)), true
	}

	da, aok := parseDecimal(a)
	db, bok := parseDecimal(b)
	if aok && bok {
		if da.Equal(db) {
			return true, true
		}
		if da.IsZero() {
			return db.IsZero(), true
		}
		diff := da.Sub(db).Abs().Div(da.Abs())
		return diff.LessThanOrEqual(decimal.NewFromFloat(tolerance)), true
	}

	sa, sb := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
	return sa == sb, taok || tbok || aok || bok
}

func parseDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return t, true
	case int64:
		return decimal.NewFromInt(t), true
	case float64:
		return decimal.NewFromFloat(t), true
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
