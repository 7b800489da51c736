// Package canonical implements the intermediate type representation
// that bridges PostgreSQL/MSSQL source types and the MySQL target: a
// closed enumeration, per-engine total mapping functions in both
// directions, and the row-transform dispatch table keyed by
// (source, target) canonical pairs.
package canonical

import "fmt"

// Type is the closed canonical type enumeration. Every source/target
// native type must map to exactly one of these.
type Type string

const (
	Int1        Type = "INT1"
	Int2        Type = "INT2"
	Int4        Type = "INT4"
	Int8        Type = "INT8"
	Float4      Type = "FLOAT4"
	Float8      Type = "FLOAT8"
	Decimal     Type = "DECIMAL"
	Bool        Type = "BOOL"
	Text        Type = "TEXT"
	NText       Type = "NTEXT"
	Clob        Type = "CLOB"
	Blob        Type = "BLOB"
	Date        Type = "DATE"
	Time        Type = "TIME"
	DateTime    Type = "DATETIME"
	DateTimeTZ  Type = "DATETIMETZ"
	JSON        Type = "JSON"
	UUID        Type = "UUID"
	Enum        Type = "ENUM"
	BinaryFixed Type = "BINARY_FIXED"
	Unknown     Type = "UNKNOWN"
)

// Valid reports whether t is a member of the closed enumeration.
func (t Type) Valid() bool {
	switch t {
	case Int1, Int2, Int4, Int8, Float4, Float8, Decimal, Bool, Text, NText,
		Clob, Blob, Date, Time, DateTime, DateTimeTZ, JSON, UUID, Enum,
		BinaryFixed, Unknown:
		return true
	default:
		return false
	}
}

// Parsed is a canonical type together with the length/precision/scale
// parsed off the native type declaration, e.g. DECIMAL(10,2) or
// VARCHAR(255).
type Parsed struct {
	Type      Type
	Length    int
	Precision int
	Scale     int
}

func (p Parsed) String() string {
	switch p.Type {
	case Decimal:
		if p.Precision > 0 {
			return fmt.Sprintf("%s(%d,%d)", p.Type, p.Precision, p.Scale)
		}
	case Text, NText, BinaryFixed:
		if p.Length > 0 {
			return fmt.Sprintf("%s(%d)", p.Type, p.Length)
		}
	}
	return string(p.Type)
}

// Loss describes information that cannot survive a particular
// source→target conversion, attached to a ColumnSpec/ColumnMapping so
// the reviewer and the validator both know to expect it.
type Loss struct {
	Reason string
}

func (l *Loss) String() string {
	if l == nil {
		return ""
	}
	return l.Reason
}
