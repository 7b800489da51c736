package canonical

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransformFunc converts one extracted column value from its source
// representation into the value that should be bound into the target
// insert. Transforms are pure and never touch I/O.
type TransformFunc func(v any) (any, error)

// pairKey identifies one (source, target) canonical transform. Missing
// entries are a mapping-validation error (surfaced by
// internal/approval), never a row-load-time surprise, per the
// dispatch-table design note.
type pairKey struct {
	Source Type
	Target Type
}

var transforms = map[pairKey]TransformFunc{}

func register(src, tgt Type, fn TransformFunc) {
	transforms[pairKey{src, tgt}] = fn
}

func identity(v any) (any, error) { return v, nil }

func toDecimalString(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case decimal.Decimal:
		return t.String(), nil
	case string:
		d, err := decimal.NewFromString(t)
		if err != nil {
			return nil, fmt.Errorf("decimal parse %q: %w", t, err)
		}
		return d.String(), nil
	case float64:
		return decimal.NewFromFloat(t).String(), nil
	default:
		return nil, fmt.Errorf("unsupported decimal source value %T", v)
	}
}

func widenToUTCDateTime(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.UTC().Format("2006-01-02 15:04:05"), nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return t, nil
		}
		return parsed.UTC().Format("2006-01-02 15:04:05"), nil
	default:
		return nil, fmt.Errorf("unsupported datetime source value %T", v)
	}
}

func passDateTime(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.Format("2006-01-02 15:04:05"), nil
	default:
		return v, nil
	}
}

func boolToTinyint(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return v, nil
	}
}

func uuidToChar36(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		id, err := uuid.Parse(t)
		if err != nil {
			return nil, fmt.Errorf("uuid parse %q: %w", t, err)
		}
		return id.String(), nil
	case [16]byte:
		return uuid.UUID(t).String(), nil
	default:
		return nil, fmt.Errorf("unsupported uuid source value %T", v)
	}
}

func bytesToBase64(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	default:
		return nil, fmt.Errorf("unsupported bytes source value %T", v)
	}
}

func jsonPassthrough(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	default:
		enc, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("json encode: %w", err)
		}
		return string(enc), nil
	}
}

func toText(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", v), nil
}

func passTime(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.Format("15:04:05"), nil
	case string:
		return t, nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func base64ToBytes(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return t, nil
	case string:
		if decoded, err := base64.StdEncoding.DecodeString(t); err == nil {
			return decoded, nil
		}
		return []byte(t), nil
	default:
		return nil, fmt.Errorf("unsupported bytes source value %T", v)
	}
}

func init() {
	numeric := []Type{Int8, Int4, Int2, Int1, Float8, Float4}
	for _, t := range numeric {
		register(t, t, identity)
	}
	register(Decimal, Decimal, toDecimalString)

	textLike := []Type{Text, NText, Clob}
	for _, s := range textLike {
		for _, t := range textLike {
			register(s, t, toText)
		}
	}
	register(Unknown, Text, toText)
	register(Unknown, Clob, toText)
	register(Enum, Enum, toText)
	register(Enum, Text, toText)

	register(Date, Date, passDateTime)
	register(Time, Time, passTime)
	register(DateTime, DateTime, passDateTime)
	register(DateTimeTZ, DateTime, widenToUTCDateTime)
	register(DateTimeTZ, DateTimeTZ, passDateTime)

	register(Bool, Bool, boolToTinyint)

	register(BinaryFixed, BinaryFixed, bytesToBase64)
	register(BinaryFixed, Blob, bytesToBase64)
	register(Blob, Blob, base64ToBytes)

	register(JSON, JSON, jsonPassthrough)

	register(UUID, UUID, uuidToChar36)
	register(UUID, Text, uuidToChar36)
}

// Lookup returns the transform registered for (source, target), or
// false if no such pair exists — the caller (internal/approval, at
// mapping-validation time) must treat a missing entry as a
// MappingError, never attempt the row load and discover it late.
func Lookup(source, target Type) (TransformFunc, bool) {
	fn, ok := transforms[pairKey{source, target}]
	return fn, ok
}

// SupportedTargets returns every target canonical type that has a
// registered transform from src, for building diagnostic messages.
func SupportedTargets(src Type) []string {
	var out []string
	for k := range transforms {
		if k.Source == src {
			out = append(out, string(k.Target))
		}
	}
	return out
}

// CanonicalRowKey renders one row's PK-sampled values into a stable
// byte string for hashing (used by the L3 sample-hash validator). Field
// order is the caller's responsibility (pass columns pre-sorted).
func CanonicalRowKey(values []any) []byte {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		if v == nil {
			b.WriteString("\x00NULL")
			continue
		}
		fmt.Fprintf(&b, "%v", v)
	}
	return []byte(b.String())
}
