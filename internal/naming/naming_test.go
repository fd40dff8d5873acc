package naming

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldName(t *testing.T) {
	n := Default()
	tests := []struct {
		in, want string
	}{
		{"Id", "id"},
		{"ID", "id"},
		{"Name", "name"},
		{"Children", "children"},
		{"ParentEntities", "parentEntities"},
		{"URLPath", "urlPath"},
		{"userID", "userId"},
		{"user_name", "userName"},
		{"created_at", "createdAt"},
		{"alreadyCamel", "alreadyCamel"},
		{"_hidden", "_hidden"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := n.FieldName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, Valid(got))
		})
	}
}

func TestTypeName(t *testing.T) {
	n := Default()
	assert.Equal(t, "ParentEntity", n.TypeName("ParentEntity"))
	assert.Equal(t, "UserProfiles", n.TypeName("user_profiles"))
	assert.Equal(t, "Query_", n.TypeName("Query"))
	assert.Equal(t, "PageInfo_", n.TypeName("PageInfo"))
	assert.Equal(t, "String_", n.TypeName("string"))
}

func TestEnumValueName(t *testing.T) {
	n := Default()
	assert.Equal(t, "IN_PROGRESS", n.EnumValueName("InProgress"))
	assert.Equal(t, "ON_HOLD", n.EnumValueName("on-hold"))
	assert.Equal(t, "ACTIVE", n.EnumValueName("active"))
	assert.Equal(t, "_2FA", n.EnumValueName("2fa"))
	assert.Equal(t, "VALUE_TRUE", n.EnumValueName("true"))
	assert.True(t, Valid(n.EnumValueName("with space")))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("abc_123"))
	assert.True(t, Valid("_x"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("1abc"))
	assert.False(t, Valid("a-b"))
}

func TestPluralizeWithOverrides(t *testing.T) {
	n := New(Config{
		PluralOverrides:   map[string]string{"person": "persons"},
		SingularOverrides: map[string]string{"data": "datum"},
	}, nil)

	assert.Equal(t, "persons", n.Pluralize("person"))
	assert.Equal(t, "categories", n.Pluralize("category"))
	assert.Equal(t, "datum", n.Singularize("data"))
	assert.Equal(t, "order", n.Singularize("orders"))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.RegisterType("Item", "shop.Item"))
	require.NoError(t, r.RegisterType("Item", "shop.Item"))

	err := r.RegisterType("Item", "billing.Item")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCollision))
	assert.Contains(t, err.Error(), "billing.Item")

	require.NoError(t, r.RegisterField("Item", "name", "property:Name"))
	require.NoError(t, r.RegisterField("Other", "name", "property:Name"))
	assert.ErrorIs(t, r.RegisterField("Item", "name", "navigation:name"), ErrCollision)

	source, ok := r.TypeSource("Item")
	assert.True(t, ok)
	assert.Equal(t, "shop.Item", source)
}
