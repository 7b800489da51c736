package migrator

import (
	"fmt"

	"go.uber.org/zap"

	"dbmig/internal/model"
)

// ResumeMode selects how a table's rows are paginated: by primary key
// (stable across concurrent writes to earlier pages) or by plain
// OFFSET, which is the only option once a table has no usable primary
// key and can silently reorder under concurrent writes — hence the
// degraded-mode warning callers must log.
type ResumeMode int

const (
	ResumeByKeyset ResumeMode = iota
	ResumeByOffset
)

// PlanResume decides pkCols and ResumeMode for one table, and returns
// the []any value to resume from (nil to start at the beginning).
// Falling back to OFFSET for a PK-less table is a deliberate, logged
// degradation: a table can still be migrated without a primary key, but
// resumption after a crash may re-scan or skip rows if the source table
// is written to concurrently, per the "no-PK resumption" decision.
func PlanResume(spec *model.TableSpec, cp *model.Checkpoint, log *zap.Logger) (mode ResumeMode, pkCols []string, lastPK []any, offset int64) {
	for _, c := range spec.Columns {
		if c.IsPrimaryKey {
			pkCols = append(pkCols, c.Name)
		}
	}

	if len(pkCols) == 0 {
		if log != nil {
			log.Warn("table has no primary key, resuming by offset (unsafe under concurrent writes)",
				zap.String("table", spec.Name))
		}
		return ResumeByOffset, nil, nil, cp.LastOffset
	}

	if cp.LastPKValue == "" {
		return ResumeByKeyset, pkCols, nil, 0
	}
	return ResumeByKeyset, pkCols, decodeLastPK(cp.LastPKValue), 0
}

// decodeLastPK splits the checkpoint's stored composite key string back
// into per-column values. Keys are joined with the same 0x1f separator
// canonical.CanonicalRowKey uses, so a single-column key round-trips as
// one string and a composite key round-trips as its ordered parts.
func decodeLastPK(stored string) []any {
	parts := splitPK(stored)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

func splitPK(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1f {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// EncodeLastPK is the inverse of decodeLastPK, used when writing a
// checkpoint after a chunk completes.
func EncodeLastPK(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = toString(v)
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += string(rune(0x1f)) + p
	}
	return out
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
