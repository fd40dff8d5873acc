// Package scalars defines the custom GraphQL scalars used by generated schemas.
package scalars

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

func NonNegativeInt() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "NonNegativeInt",
		Description: "An integer greater than or equal to zero.",
		Serialize: func(value interface{}) interface{} {
			if parsed, ok := CoerceNonNegativeInt(value); ok {
				return parsed
			}
			return nil
		},
		ParseValue: func(value interface{}) interface{} {
			if parsed, ok := CoerceNonNegativeInt(value); ok {
				return parsed
			}
			return nil
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			intValue, ok := valueAST.(*ast.IntValue)
			if !ok {
				return nil
			}
			parsed, err := strconv.Atoi(intValue.Value)
			if err != nil || parsed < 0 {
				return nil
			}
			return parsed
		},
	})
}

func JSON() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "JSON",
		Description: "Arbitrary JSON value serialized as a string.",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case []byte:
				return string(v)
			case json.RawMessage:
				return string(v)
			case string:
				return v
			case nil:
				return nil
			default:
				serialized, err := json.Marshal(v)
				if err != nil {
					slog.Default().Warn("failed to serialize JSON scalar", slog.String("error", err.Error()))
					return nil
				}
				return string(serialized)
			}
		},
		ParseValue: func(value interface{}) interface{} {
			if s, ok := value.(string); ok && json.Valid([]byte(s)) {
				return s
			}
			return nil
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok && json.Valid([]byte(sv.Value)) {
				return sv.Value
			}
			return nil
		},
	})
}

func BigInt() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "BigInt",
		Description: "64-bit integer value serialized as a string.",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case uint:
				return strconv.FormatUint(uint64(v), 10)
			case uint64:
				return strconv.FormatUint(v, 10)
			case []byte:
				value = string(v)
			case time.Duration:
				return strconv.FormatInt(int64(v), 10)
			}
			if parsed, ok := coerceInt64(value); ok {
				return strconv.FormatInt(parsed, 10)
			}
			return nil
		},
		ParseValue: func(value interface{}) interface{} {
			if parsed, ok := coerceInt64(value); ok {
				return parsed
			}
			return nil
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			switch v := valueAST.(type) {
			case *ast.IntValue:
				if parsed, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
					return parsed
				}
			case *ast.StringValue:
				if parsed, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
					return parsed
				}
			}
			return nil
		},
	})
}

func coerceInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func Decimal() *graphql.Scalar {
	format := func(value interface{}) interface{} {
		switch v := value.(type) {
		case []byte:
			return validDecimal(string(v))
		case string:
			return validDecimal(v)
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return fmt.Sprintf("%d", v)
		case float32:
			return strconv.FormatFloat(float64(v), 'f', -1, 32)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return nil
		}
	}
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "Decimal",
		Description: "Fixed-point decimal value serialized as a string.",
		Serialize:   format,
		ParseValue:  format,
		ParseLiteral: func(valueAST ast.Value) interface{} {
			switch v := valueAST.(type) {
			case *ast.StringValue:
				return validDecimal(v.Value)
			case *ast.IntValue:
				return v.Value
			case *ast.FloatValue:
				return v.Value
			default:
				return nil
			}
		},
	})
}

func validDecimal(s string) interface{} {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return nil
	}
	return s
}

func DateTime() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "DateTime",
		Description: "Timestamp serialized as RFC 3339.",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v.UTC().Format(time.RFC3339Nano)
			case *time.Time:
				if v == nil {
					return nil
				}
				return v.UTC().Format(time.RFC3339Nano)
			case string:
				if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
					return parsed.UTC().Format(time.RFC3339Nano)
				}
				return nil
			default:
				return nil
			}
		},
		ParseValue: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v
			case string:
				if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
					return parsed
				}
			}
			return nil
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok {
				if parsed, err := time.Parse(time.RFC3339Nano, sv.Value); err == nil {
					return parsed
				}
			}
			return nil
		},
	})
}

func Date() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "Date",
		Description: "Date value serialized as YYYY-MM-DD.",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v.UTC().Format(dateLayout)
			case *time.Time:
				if v == nil {
					return nil
				}
				return v.UTC().Format(dateLayout)
			case string:
				if parsed, ok := parseDate(v); ok {
					return parsed.Format(dateLayout)
				}
				return nil
			default:
				return nil
			}
		},
		ParseValue: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v
			case string:
				if parsed, ok := parseDate(v); ok {
					return parsed
				}
			}
			return nil
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok {
				if parsed, ok := parseDate(sv.Value); ok {
					return parsed
				}
			}
			return nil
		},
	})
}

func parseDate(s string) (time.Time, bool) {
	if parsed, err := time.Parse(dateLayout, s); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func Time() *graphql.Scalar {
	format := func(value interface{}) interface{} {
		switch v := value.(type) {
		case time.Time:
			return v.Format(timeLayout)
		case []byte:
			return string(v)
		case string:
			return v
		default:
			return nil
		}
	}
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "Time",
		Description: "Time of day serialized as HH:MM:SS.",
		Serialize:   format,
		ParseValue:  format,
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok {
				return sv.Value
			}
			return nil
		},
	})
}

func UUID() *graphql.Scalar {
	format := func(value interface{}) interface{} {
		switch v := value.(type) {
		case uuid.UUID:
			return v.String()
		case [16]byte:
			return uuid.UUID(v).String()
		case []byte:
			if len(v) == 16 {
				parsed, err := uuid.FromBytes(v)
				if err != nil {
					return nil
				}
				return parsed.String()
			}
			parsed, err := uuid.ParseBytes(v)
			if err != nil {
				return nil
			}
			return parsed.String()
		case string:
			parsed, err := uuid.Parse(v)
			if err != nil {
				return nil
			}
			return parsed.String()
		default:
			return nil
		}
	}
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "UUID",
		Description: "RFC 4122 UUID in canonical text form.",
		Serialize:   format,
		ParseValue:  format,
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok {
				return format(sv.Value)
			}
			return nil
		},
	})
}

func Bytes() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        "Bytes",
		Description: "Binary data serialized as standard base64.",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case []byte:
				return base64.StdEncoding.EncodeToString(v)
			case string:
				return base64.StdEncoding.EncodeToString([]byte(v))
			default:
				return nil
			}
		},
		ParseValue: func(value interface{}) interface{} {
			if s, ok := value.(string); ok {
				if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
					return decoded
				}
			}
			return nil
		},
		ParseLiteral: func(valueAST ast.Value) interface{} {
			if sv, ok := valueAST.(*ast.StringValue); ok {
				if decoded, err := base64.StdEncoding.DecodeString(sv.Value); err == nil {
					return decoded
				}
			}
			return nil
		},
	})
}

// CoerceNonNegativeInt converts argument values to a non-negative int.
func CoerceNonNegativeInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v < 0 {
			return 0, false
		}
		return v, true
	case int32:
		if v < 0 {
			return 0, false
		}
		return int(v), true
	case int64:
		if v < 0 || v > math.MaxInt {
			return 0, false
		}
		return int(v), true
	case float64:
		if v != math.Trunc(v) || v < 0 || v > math.MaxInt {
			return 0, false
		}
		return int(v), true
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
