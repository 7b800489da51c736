package canonical

// MSSQLToCanonical maps a SQL Server native type name to its canonical
// representation. Grounded on internal/dialect/mssql.go's NormalizeType
// switch and original_source/src/connectors/base.py's MSSQL_TYPE_MAP,
// generalized to the full canonical enum (uniqueidentifier maps to UUID
// rather than the original's TEXT fallback, per this system's closed
// enum having a dedicated UUID member).
func MSSQLToCanonical(native string, length, precision, scale int) (Parsed, *Loss) {
	name, args := splitTypeArgs(native)
	if len(args) > 0 && length == 0 && precision == 0 {
		if len(args) == 1 {
			length = args[0]
		} else {
			precision, scale = args[0], args[1]
		}
	}

	switch name {
	case "bigint":
		return Parsed{Type: Int8}, nil
	case "int":
		return Parsed{Type: Int4}, nil
	case "smallint":
		return Parsed{Type: Int2}, nil
	case "tinyint":
		return Parsed{Type: Int1}, nil
	case "decimal", "numeric":
		return Parsed{Type: Decimal, Precision: precision, Scale: scale}, nil
	case "money", "smallmoney":
		return Parsed{Type: Decimal, Precision: 19, Scale: 4}, &Loss{Reason: "currency formatting is not preserved"}
	case "float":
		return Parsed{Type: Float8}, nil
	case "real":
		return Parsed{Type: Float4}, nil
	case "varchar":
		return Parsed{Type: Text, Length: length}, nil
	case "nvarchar":
		return Parsed{Type: NText, Length: length}, nil
	case "char":
		return Parsed{Type: Text, Length: length}, nil
	case "nchar":
		return Parsed{Type: NText, Length: length}, &Loss{Reason: "unicode-specific collation is not preserved"}
	case "text", "ntext":
		return Parsed{Type: Clob}, nil
	case "date":
		return Parsed{Type: Date}, nil
	case "datetime", "datetime2", "smalldatetime":
		return Parsed{Type: DateTime}, nil
	case "datetimeoffset":
		return Parsed{Type: DateTimeTZ}, nil
	case "time":
		return Parsed{Type: Time}, nil
	case "bit":
		return Parsed{Type: Bool}, nil
	case "binary":
		return Parsed{Type: BinaryFixed, Length: length}, nil
	case "varbinary":
		return Parsed{Type: Blob}, nil
	case "image":
		return Parsed{Type: Blob}, nil
	case "xml":
		return Parsed{Type: Clob}, &Loss{Reason: "xml is stored as text; structure and validation are not preserved"}
	case "uniqueidentifier":
		return Parsed{Type: UUID}, nil
	default:
		return Parsed{Type: Unknown}, &Loss{Reason: "unrecognized mssql type " + name}
	}
}
