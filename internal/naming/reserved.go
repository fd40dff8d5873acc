package naming

import "strings"

// reservedTypeNames contains GraphQL keywords, built-in scalars, and the type
// names generated schemas define on their own.
var reservedTypeNames = map[string]bool{
	"query":        true,
	"mutation":     true,
	"subscription": true,
	"type":         true,
	"schema":       true,
	"scalar":       true,
	"enum":         true,
	"input":        true,
	"interface":    true,
	"union":        true,
	"fragment":     true,
	"directive":    true,
	"extend":       true,
	"implements":   true,
	"on":           true,

	"int":     true,
	"float":   true,
	"string":  true,
	"boolean": true,
	"id":      true,

	"true":  true,
	"false": true,
	"null":  true,

	// Custom scalars and connection plumbing
	"bigint":         true,
	"decimal":        true,
	"datetime":       true,
	"date":           true,
	"time":           true,
	"json":           true,
	"uuid":           true,
	"bytes":          true,
	"nonnegativeint": true,
	"pageinfo":       true,
}

// isReservedTypeName checks if a type name is reserved.
func isReservedTypeName(name string) bool {
	lowerName := strings.ToLower(name)
	if strings.HasPrefix(lowerName, "__") {
		return true
	}
	return reservedTypeNames[lowerName]
}
