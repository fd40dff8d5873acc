package naming

import (
	"log/slog"
	"strings"
	"unicode"
)

// Namer provides the name transformations applied while generating a schema.
type Namer struct {
	config Config
	logger *slog.Logger
}

// New creates a Namer with the given configuration.
func New(cfg Config, logger *slog.Logger) *Namer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Namer{
		config: cfg,
		logger: logger,
	}
}

// Default returns a Namer with default configuration.
func Default() *Namer {
	return New(DefaultConfig(), nil)
}

// Config returns the naming configuration.
func (n *Namer) Config() Config {
	return n.config
}

// TypeName converts an entity simple name or table name to a GraphQL type name.
// Names that collide with GraphQL keywords or generated types get a "_" suffix.
// Example: "ParentEntity" -> "ParentEntity", "user_profiles" -> "UserProfiles"
func (n *Namer) TypeName(name string) string {
	typeName := toPascalCase(sanitize(name))
	if isReservedTypeName(typeName) {
		n.logger.Warn("GraphQL type name conflicts with reserved word, auto-suffixed",
			slog.String("original", typeName),
			slog.String("renamed", typeName+"_"),
		)
		return typeName + "_"
	}
	return typeName
}

// FieldName converts a property, navigation, or column name to a GraphQL field name.
// Example: "Id" -> "id", "URLPath" -> "urlPath", "user_name" -> "userName"
func (n *Namer) FieldName(name string) string {
	return toCamelCase(sanitize(name))
}

// EnumValueName converts an enum member to a GraphQL enum value name.
// Example: "InProgress" -> "IN_PROGRESS", "on-hold" -> "ON_HOLD"
func (n *Namer) EnumValueName(value string) string {
	words := splitWords(value)
	for i, word := range words {
		words[i] = strings.ToUpper(word)
	}
	name := sanitize(strings.Join(words, "_"))
	switch name {
	case "", "TRUE", "FALSE", "NULL":
		return "VALUE_" + name
	}
	return name
}

// Valid reports whether name matches the GraphQL name grammar /[_A-Za-z][_0-9A-Za-z]*/.
func Valid(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// sanitize replaces characters outside the GraphQL name grammar with "_" and
// prefixes names that start with a digit.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// splitWords splits snake_case, kebab-case and PascalCase identifiers into words.
// Runs of capitals are kept together: "URLPath" -> ["URL", "Path"].
func splitWords(s string) []string {
	var words []string
	runes := []rune(s)
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		if unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush(i)
				start = i
			}
		}
	}
	flush(len(runes))
	return words
}

// toPascalCase converts snake_case or camelCase to PascalCase.
func toPascalCase(s string) string {
	if !strings.Contains(s, "_") {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	}
	leading := strings.HasPrefix(s, "_")
	parts := strings.Split(s, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	out := strings.Join(parts, "")
	if leading {
		return "_" + out
	}
	return out
}

// toCamelCase converts snake_case or PascalCase to camelCase.
func toCamelCase(s string) string {
	leading := strings.HasPrefix(s, "_")
	words := splitWords(s)
	if len(words) == 0 {
		return s
	}
	var b strings.Builder
	if leading {
		b.WriteByte('_')
	}
	for i, word := range words {
		if i == 0 {
			b.WriteString(strings.ToLower(word))
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(strings.ToLower(word[1:]))
	}
	return b.String()
}
