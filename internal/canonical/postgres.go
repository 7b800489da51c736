package canonical

import (
	"regexp"
	"strconv"
	"strings"
)

var parenArgs = regexp.MustCompile(`\(([^)]*)\)`)

// splitTypeArgs strips a trailing (n) / (p,s) clause off a native type
// name and returns the bare name plus the parsed numeric arguments.
func splitTypeArgs(native string) (string, []int) {
	name := native
	var args []int
	if m := parenArgs.FindStringSubmatch(native); m != nil {
		name = strings.TrimSpace(native[:strings.Index(native, "(")])
		for _, part := range strings.Split(m[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err == nil {
				args = append(args, n)
			}
		}
	}
	return strings.ToLower(strings.TrimSpace(name)), args
}

// PostgresToCanonical maps a PostgreSQL native type name (as reported by
// information_schema, e.g. "character varying", "numeric") to its
// canonical representation. Table driven the same way
// internal/dialect/postgres.go's NormalizeType is, generalized from a
// coarse MySQL-ish bucket to the full canonical enum, and grounded on
// original_source/src/connectors/base.py's POSTGRES_SOURCE_TYPE_MAP.
func PostgresToCanonical(native string, length, precision, scale int) (Parsed, *Loss) {
	name, args := splitTypeArgs(native)
	if len(args) > 0 && length == 0 && precision == 0 {
		if len(args) == 1 {
			length = args[0]
		} else {
			precision, scale = args[0], args[1]
		}
	}

	switch name {
	case "bigint", "bigserial", "int8":
		return Parsed{Type: Int8}, nil
	case "integer", "serial", "int", "int4":
		return Parsed{Type: Int4}, nil
	case "smallint", "smallserial", "int2":
		return Parsed{Type: Int2}, nil
	case "numeric", "decimal":
		return Parsed{Type: Decimal, Precision: precision, Scale: scale}, nil
	case "double precision", "float8":
		return Parsed{Type: Float8}, nil
	case "real", "float4":
		return Parsed{Type: Float4}, nil
	case "character varying", "varchar":
		return Parsed{Type: Text, Length: length}, nil
	case "character", "char", "bpchar":
		return Parsed{Type: Text, Length: length}, nil
	case "text":
		return Parsed{Type: Clob}, nil
	case "date":
		return Parsed{Type: Date}, nil
	case "timestamp without time zone", "timestamp":
		return Parsed{Type: DateTime}, nil
	case "timestamp with time zone", "timestamptz":
		return Parsed{Type: DateTimeTZ}, nil
	case "time", "time without time zone", "time with time zone":
		return Parsed{Type: Time}, nil
	case "interval":
		return Parsed{Type: Text}, &Loss{Reason: "interval has no wall-clock equivalent and is stored as text"}
	case "boolean", "bool":
		return Parsed{Type: Bool}, nil
	case "bytea":
		return Parsed{Type: Blob}, nil
	case "json", "jsonb":
		return Parsed{Type: JSON}, nil
	case "xml":
		return Parsed{Type: Clob}, &Loss{Reason: "xml is stored as text; structure and validation are not preserved"}
	case "uuid":
		return Parsed{Type: UUID}, nil
	case "enum":
		return Parsed{Type: Enum}, nil
	case "inet", "cidr", "macaddr", "macaddr8":
		return Parsed{Type: Text}, &Loss{Reason: "network address type has no MySQL equivalent, stored as text"}
	case "money":
		return Parsed{Type: Decimal, Precision: 19, Scale: 2}, &Loss{Reason: "currency formatting is not preserved"}
	default:
		return Parsed{Type: Unknown}, &Loss{Reason: "unrecognized postgres type " + name}
	}
}
