// Package scalartype maps declared property types to GraphQL scalar kinds.
// Declared types come from model files (Go-style names such as "int64" or
// "time.Time", or CLR names such as "System.Int32" or "Guid") or from database
// introspection (SQL data types such as "varchar(255)"), so all of these
// vocabularies are recognized.
package scalartype

import "strings"

// Kind is the category of GraphQL scalar a declared type maps to.
type Kind int

const (
	// KindUnknown marks a declared type with no scalar mapping.
	KindUnknown Kind = iota
	KindString
	KindInt
	KindFloat
	KindBoolean
	KindID
	KindBigInt
	KindDecimal
	KindDateTime
	KindDate
	KindTime
	KindJSON
	KindUUID
	KindBytes
)

var kindsByType = map[string]Kind{
	// Go-style declared types
	"string":          KindString,
	"rune":            KindString,
	"int":             KindInt,
	"int8":            KindInt,
	"int16":           KindInt,
	"int32":           KindInt,
	"uint8":           KindInt,
	"uint16":          KindInt,
	"byte":            KindInt,
	"int64":           KindBigInt,
	"uint":            KindBigInt,
	"uint32":          KindBigInt,
	"uint64":          KindBigInt,
	"float32":         KindFloat,
	"float64":         KindFloat,
	"bool":            KindBoolean,
	"id":              KindID,
	"time.time":       KindDateTime,
	"time.duration":   KindBigInt,
	"json.rawmessage": KindJSON,
	"map[string]any":  KindJSON,
	"uuid.uuid":       KindUUID,
	"[]byte":          KindBytes,

	// CLR type names, with or without the "System." namespace
	"sbyte":          KindInt,
	"short":          KindInt,
	"ushort":         KindInt,
	"long":           KindBigInt,
	"ulong":          KindBigInt,
	"single":         KindFloat,
	"guid":           KindUUID,
	"datetimeoffset": KindDateTime,
	"dateonly":       KindDate,
	"timeonly":       KindTime,
	"byte[]":         KindBytes,

	// SQL data types (INFORMATION_SCHEMA.COLUMNS.DATA_TYPE)
	"tinyint":    KindInt,
	"smallint":   KindInt,
	"mediumint":  KindInt,
	"integer":    KindInt,
	"year":       KindInt,
	"bigint":     KindBigInt,
	"serial":     KindBigInt,
	"bit":        KindBigInt,
	"float":      KindFloat,
	"double":     KindFloat,
	"real":       KindFloat,
	"decimal":    KindDecimal,
	"numeric":    KindDecimal,
	"boolean":    KindBoolean,
	"char":       KindString,
	"varchar":    KindString,
	"tinytext":   KindString,
	"text":       KindString,
	"mediumtext": KindString,
	"longtext":   KindString,
	"enum":       KindString,
	"set":        KindString,
	"json":       KindJSON,
	"date":       KindDate,
	"datetime":   KindDateTime,
	"timestamp":  KindDateTime,
	"time":       KindTime,
	"binary":     KindBytes,
	"varbinary":  KindBytes,
	"blob":       KindBytes,
	"tinyblob":   KindBytes,
	"mediumblob": KindBytes,
	"longblob":   KindBytes,
	"uuid":       KindUUID,
}

// Normalize lowercases a declared type and strips size specifiers like (10,2),
// a leading pointer marker, a "System." namespace and a trailing "?".
func Normalize(declared string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	if idx := strings.Index(t, "("); idx != -1 {
		t = strings.TrimSpace(t[:idx])
	}
	// "tinyint unsigned" and friends
	if idx := strings.Index(t, " "); idx != -1 {
		t = t[:idx]
	}
	t = strings.TrimPrefix(t, "*")
	t = strings.TrimPrefix(t, "system.")
	return strings.TrimSuffix(t, "?")
}

// Lookup returns the scalar kind for a declared type. The second result is
// false when the declared type has no mapping.
func Lookup(declared string) (Kind, bool) {
	kind, ok := kindsByType[Normalize(declared)]
	return kind, ok
}

// IsScalar reports whether a declared type maps to a scalar kind.
func IsScalar(declared string) bool {
	_, ok := Lookup(declared)
	return ok
}

// String returns the GraphQL scalar type name for schema generation.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBoolean:
		return "Boolean"
	case KindID:
		return "ID"
	case KindBigInt:
		return "BigInt"
	case KindDecimal:
		return "Decimal"
	case KindDateTime:
		return "DateTime"
	case KindDate:
		return "Date"
	case KindTime:
		return "Time"
	case KindJSON:
		return "JSON"
	case KindUUID:
		return "UUID"
	case KindBytes:
		return "Bytes"
	default:
		return "Unknown"
	}
}

// IsBuiltin reports whether the kind maps to one of the GraphQL built-in scalars.
func (k Kind) IsBuiltin() bool {
	switch k {
	case KindString, KindInt, KindFloat, KindBoolean, KindID:
		return true
	default:
		return false
	}
}
