package canonical

import "fmt"

const (
	defaultVarcharLen = 255
	defaultPrecision  = 38
	defaultScale      = 0
)

// MySQLFromCanonical renders a canonical Parsed type as a MySQL native
// type declaration, grounded on
// original_source/src/connectors/base.py's CANONICAL_TO_TARGET["mysql"]
// table and resolve_target_type's {n}/{p}/{s} default substitution.
func MySQLFromCanonical(p Parsed) (string, error) {
	length := p.Length
	if length <= 0 {
		length = defaultVarcharLen
	}
	precision := p.Precision
	if precision <= 0 {
		precision = defaultPrecision
	}
	scale := p.Scale

	switch p.Type {
	case Int8:
		return "BIGINT", nil
	case Int4:
		return "INT", nil
	case Int2:
		return "SMALLINT", nil
	case Int1:
		return "TINYINT", nil
	case Decimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", precision, scale), nil
	case Float8:
		return "DOUBLE", nil
	case Float4:
		return "FLOAT", nil
	case Text:
		if length <= 65535 {
			return fmt.Sprintf("VARCHAR(%d)", length), nil
		}
		return "TEXT", nil
	case NText:
		return "TEXT", nil
	case Clob:
		return "LONGTEXT", nil
	case Date:
		return "DATE", nil
	case Time:
		return "TIME", nil
	case DateTime:
		return "DATETIME", nil
	case DateTimeTZ:
		return "DATETIME", nil
	case Bool:
		return "TINYINT(1)", nil
	case BinaryFixed:
		return fmt.Sprintf("BINARY(%d)", length), nil
	case Blob:
		return "LONGBLOB", nil
	case JSON:
		return "JSON", nil
	case UUID:
		return "CHAR(36)", nil
	case Enum:
		return fmt.Sprintf("VARCHAR(%d)", length), nil
	case Unknown:
		return "LONGTEXT", nil
	default:
		return "", fmt.Errorf("no mysql rendering for canonical type %q", p.Type)
	}
}

// LossForTarget reports whether rendering p for MySQL is inherently
// lossy independent of the source engine (e.g. DATETIMETZ dropping its
// offset — MySQL has no timezone-aware temporal type).
func LossForTarget(p Parsed) *Loss {
	switch p.Type {
	case DateTimeTZ:
		return &Loss{Reason: "MySQL DATETIME has no timezone component; offset is discarded"}
	case Enum:
		return &Loss{Reason: "enum member constraint is not enforced on the target; rendered as VARCHAR"}
	case Unknown:
		return &Loss{Reason: "unrecognized source type stored as LONGTEXT"}
	default:
		return nil
	}
}
