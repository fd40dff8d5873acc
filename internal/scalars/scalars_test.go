package scalars

import (
	"encoding/base64"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gql-automap/internal/scalartype"
)

func TestBigIntScalar(t *testing.T) {
	scalar := BigInt()

	assert.Equal(t, "9223372036854775807", scalar.Serialize(int64(9223372036854775807)))
	assert.Equal(t, "42", scalar.Serialize([]byte("42")))
	assert.Equal(t, "18446744073709551615", scalar.Serialize(uint64(math.MaxUint64)))

	parsed := scalar.ParseValue("42")
	require.IsType(t, int64(0), parsed)
	assert.Equal(t, int64(42), parsed)

	assert.Nil(t, scalar.ParseValue("not-a-number"))
	assert.Nil(t, scalar.Serialize(float64(math.MaxInt64)*2))
	assert.Nil(t, scalar.ParseValue(float64(math.MaxInt64)*2))
	assert.Equal(t, int64(7), scalar.ParseLiteral(&ast.IntValue{Value: "7"}))
}

func TestDecimalScalar(t *testing.T) {
	scalar := Decimal()

	assert.Equal(t, "12345.67", scalar.Serialize("12345.67"))
	assert.Equal(t, "98.76", scalar.ParseValue("98.76"))
	assert.Equal(t, "1.5", scalar.Serialize(1.5))
	assert.Equal(t, "10", scalar.Serialize(10))
	assert.Nil(t, scalar.ParseValue("not-a-decimal"))
	assert.Nil(t, scalar.ParseValue(""))
	assert.Equal(t, "10.5", scalar.ParseLiteral(&ast.FloatValue{Value: "10.5"}))
	assert.Nil(t, scalar.ParseLiteral(&ast.StringValue{Value: "abc"}))
}

func TestDateScalars(t *testing.T) {
	input := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-01-15", Date().Serialize(input))
	assert.Equal(t, "2024-01-15T10:30:00Z", DateTime().Serialize(input))
	assert.Equal(t, "10:30:00", Time().Serialize(input))

	parsed := Date().ParseValue("2024-01-02")
	require.IsType(t, time.Time{}, parsed)
	assert.Equal(t, 2, parsed.(time.Time).Day())

	assert.Nil(t, DateTime().ParseValue("yesterday"))
	assert.Nil(t, Date().Serialize((*time.Time)(nil)))
}

func TestUUIDScalar(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	scalar := UUID()

	assert.Equal(t, id.String(), scalar.Serialize(id))
	assert.Equal(t, id.String(), scalar.Serialize(id[:]))
	assert.Equal(t, id.String(), scalar.ParseValue("6BA7B810-9DAD-11D1-80B4-00C04FD430C8"))
	assert.Nil(t, scalar.ParseValue("nope"))
}

func TestJSONAndBytesScalars(t *testing.T) {
	assert.Equal(t, `{"a":1}`, JSON().Serialize(map[string]int{"a": 1}))
	assert.Equal(t, `[1,2]`, JSON().ParseValue(`[1,2]`))
	assert.Nil(t, JSON().ParseValue(`{broken`))

	encoded := base64.StdEncoding.EncodeToString([]byte("hi"))
	assert.Equal(t, encoded, Bytes().Serialize([]byte("hi")))
	assert.Equal(t, []byte("hi"), Bytes().ParseValue(encoded))
}

func TestNonNegativeInt(t *testing.T) {
	scalar := NonNegativeInt()
	assert.Equal(t, 5, scalar.ParseValue(5))
	assert.Nil(t, scalar.ParseValue(-1))
	assert.Nil(t, scalar.ParseLiteral(&ast.IntValue{Value: "-3"}))
	assert.Equal(t, 3, scalar.ParseLiteral(&ast.IntValue{Value: "3"}))
}

func TestSetReturnsSharedInstances(t *testing.T) {
	set := NewSet()

	assert.Same(t, graphql.Int, set.Output(scalartype.KindInt))
	assert.Same(t, graphql.String, set.Output(scalartype.KindString))
	assert.Nil(t, set.Output(scalartype.KindUnknown))

	first := set.Output(scalartype.KindBigInt)
	second := set.Output(scalartype.KindBigInt)
	assert.Same(t, first, second)
	assert.Equal(t, "BigInt", first.Name())

	assert.Same(t, set.NonNegativeInt(), set.NonNegativeInt())
}
