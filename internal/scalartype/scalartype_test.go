package scalartype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		declared string
		want     Kind
	}{
		{"string", KindString},
		{"int", KindInt},
		{"int32", KindInt},
		{"int64", KindBigInt},
		{"float64", KindFloat},
		{"bool", KindBoolean},
		{"time.Time", KindDateTime},
		{"*time.Time", KindDateTime},
		{"uuid.UUID", KindUUID},
		{"[]byte", KindBytes},
		{"json.RawMessage", KindJSON},
		{"VARCHAR(255)", KindString},
		{"decimal(10,2)", KindDecimal},
		{"tinyint unsigned", KindInt},
		{"BIGINT", KindBigInt},
		{"datetime", KindDateTime},
		{"date", KindDate},
		{"time", KindTime},
		{"json", KindJSON},
		{"enum('a','b')", KindString},
		{"Guid", KindUUID},
		{"System.Guid", KindUUID},
		{"Single", KindFloat},
		{"System.Double", KindFloat},
		{"DateTimeOffset", KindDateTime},
		{"System.Int32", KindInt},
		{"System.Int64", KindBigInt},
		{"long", KindBigInt},
		{"System.Boolean", KindBoolean},
		{"System.String", KindString},
		{"System.Decimal", KindDecimal},
		{"byte[]", KindBytes},
		{"int?", KindInt},
		{"DateOnly", KindDate},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			got, ok := Lookup(tt.declared)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	for _, declared := range []string{"geometry", "chan int", "complex128", ""} {
		kind, ok := Lookup(declared)
		assert.False(t, ok, declared)
		assert.Equal(t, KindUnknown, kind)
		assert.False(t, IsScalar(declared))
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Int", KindInt.String())
	assert.Equal(t, "BigInt", KindBigInt.String())
	assert.Equal(t, "DateTime", KindDateTime.String())
	assert.Equal(t, "Unknown", KindUnknown.String())
	assert.True(t, KindID.IsBuiltin())
	assert.False(t, KindJSON.IsBuiltin())
}
