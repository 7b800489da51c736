package proposer

import (
	"fmt"

	"dbmig/internal/canonical"
	"dbmig/internal/model"
)

// FallbackMapping builds a deterministic column mapping straight from
// canonical type rules, with no LLM involvement — this is the path
// that guarantees the pipeline can complete a full run with the LLM
// disabled, per spec's determinism requirement. It mirrors
// original_source/src/connectors/base.py's resolve_target_type acting
// as MySQLTargetConnector's non-LLM path.
func FallbackMapping(spec *model.TableSpec) (*model.Mapping, []string) {
	mapping := &model.Mapping{
		SourceTable:  spec.Name,
		TargetTable:  spec.Name,
		ProposedBy:   "rules",
		MySQLEngine:  "InnoDB",
		MySQLCharset: "utf8mb4",
	}

	var warnings []string
	for _, col := range spec.Columns {
		ct := canonical.Type(col.CanonicalType)
		targetCanonical := ct
		if ct == canonical.DateTimeTZ {
			// MySQL has no timezone-aware temporal type; widen to DATETIME.
			targetCanonical = canonical.DateTime
		}
		targetType, err := canonical.MySQLFromCanonical(canonical.Parsed{
			Type: targetCanonical, Length: col.Length, Precision: col.Precision, Scale: col.Scale,
		})
		cm := model.ColumnMapping{
			Source:              col.Name,
			Target:              col.Name,
			CanonicalType:       col.CanonicalType,
			TargetCanonicalType: string(targetCanonical),
			Nullable:            col.Nullable,
			AutoIncrement:       col.IsAutoIncr,
		}
		if err != nil {
			cm.TargetType = "LONGTEXT"
			cm.Warning = err.Error()
			warnings = append(warnings, fmt.Sprintf("%s.%s: %v", spec.Name, col.Name, err))
		} else {
			cm.TargetType = targetType
		}
		if loss := canonical.LossForTarget(canonical.Parsed{Type: ct}); loss != nil {
			cm.Warning = loss.Reason
		}
		if col.IsPrimaryKey {
			cm.Role = "primary_key"
		} else if col.IsUnique {
			cm.Role = "unique"
		}
		mapping.Columns = append(mapping.Columns, cm)
	}

	for _, idx := range spec.Indexes {
		mapping.Indexes = append(mapping.Indexes, idx)
	}
	return mapping, warnings
}
