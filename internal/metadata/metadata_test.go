package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopModel = `
context:
  name: shop.ShopContext
  collections:
    - name: parentEntities
      type: shop.ParentEntity
    - name: childEntities
      type: shop.ChildEntity
enums:
  - name: shop.Status
    values: [Active, Retired]
entities:
  - type: shop.ParentEntity
    properties:
      - name: Id
        type: int
      - name: Name
        type: string
        nullable: true
      - name: Status
        type: shop.Status
    navigations:
      - name: Children
        target: shop.ChildEntity
        collection: true
  - type: shop.ChildEntity
    properties:
      - name: Id
        type: int
    navigations:
      - name: Parent
        target: shop.ParentEntity
        nullable: false
      - name: Sibling
        target: shop.ChildEntity
`

func TestLoadModel(t *testing.T) {
	doc, err := LoadModel(strings.NewReader(shopModel))
	require.NoError(t, err)
	require.NotNil(t, doc.Context)

	assert.Equal(t, "shop.ShopContext", doc.Context.Name)
	assert.Equal(t, []Collection{
		{Name: "parentEntities", ElementType: "shop.ParentEntity"},
		{Name: "childEntities", ElementType: "shop.ChildEntity"},
	}, doc.Context.RootCollections())

	parent, ok := doc.Model.FindEntity("shop.ParentEntity")
	require.True(t, ok)
	assert.Equal(t, "ParentEntity", parent.SimpleName())
	require.Len(t, parent.Properties, 3)
	assert.Equal(t, "Id", parent.Properties[0].Name)
	assert.False(t, parent.Properties[0].Nullable)
	assert.True(t, parent.Properties[1].Nullable)

	status, ok := parent.Property("Status")
	require.True(t, ok)
	require.True(t, status.IsEnum())
	assert.Equal(t, []string{"Active", "Retired"}, status.Enum.Values)
	assert.Equal(t, "Status", status.Enum.SimpleName())

	children, ok := parent.Navigation("Children")
	require.True(t, ok)
	assert.True(t, children.Collection)
	assert.Equal(t, "shop.ChildEntity", children.Target)

	child, ok := doc.Model.FindEntity("shop.ChildEntity")
	require.True(t, ok)
	parentNav, _ := child.Navigation("Parent")
	assert.False(t, parentNav.Nullable)
	sibling, _ := child.Navigation("Sibling")
	assert.True(t, sibling.Nullable)

	_, ok = doc.Model.FindEntity("shop.Missing")
	assert.False(t, ok)
}

func TestLoadModelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(shopModel), 0o600))

	doc, err := LoadModelFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Model.Entities(), 2)

	_, err = LoadModelFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadModelRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"unknown key", "entities:\n  - type: a.B\n    colour: red\n"},
		{"duplicate entity", "entities:\n  - type: a.B\n  - type: a.B\n"},
		{"missing property type", "entities:\n  - type: a.B\n    properties:\n      - name: X\n"},
		{"duplicate member", "entities:\n  - type: a.B\n    properties:\n      - {name: X, type: int}\n    navigations:\n      - {name: X, target: a.B}\n"},
		{"navigation without target", "entities:\n  - type: a.B\n    navigations:\n      - {name: X}\n"},
		{"duplicate enum", "enums:\n  - {name: a.E, values: [x]}\n  - {name: a.E, values: [y]}\n"},
		{"empty enum", "enums:\n  - {name: a.E}\nentities:\n  - type: a.B\n    properties:\n      - {name: X, type: a.E}\n"},
		{"collection without type", "context:\n  name: c\n  collections:\n    - name: bs\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadModel(strings.NewReader(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestNewModelEnumConflicts(t *testing.T) {
	a := &Enum{Name: "x.E", Values: []string{"A"}}
	same := &Enum{Name: "x.E", Values: []string{"A"}}
	other := &Enum{Name: "x.E", Values: []string{"B"}}

	_, err := NewModel(
		&Entity{Type: "x.One", Properties: []Property{{Name: "E", Type: "x.E", Enum: a}}},
		&Entity{Type: "x.Two", Properties: []Property{{Name: "E", Type: "x.E", Enum: same}}},
	)
	require.NoError(t, err)

	_, err = NewModel(
		&Entity{Type: "x.One", Properties: []Property{{Name: "E", Type: "x.E", Enum: a}}},
		&Entity{Type: "x.Two", Properties: []Property{{Name: "E", Type: "x.E", Enum: other}}},
	)
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestDefaultContext(t *testing.T) {
	model := MustModel(&Entity{Type: "shop.Order"}, &Entity{Type: "shop.Customer"})
	ctxType := model.DefaultContext("shop", func(e *Entity) string {
		return strings.ToLower(e.SimpleName()) + "s"
	})

	assert.Equal(t, []Collection{
		{Name: "orders", ElementType: "shop.Order"},
		{Name: "customers", ElementType: "shop.Customer"},
	}, ctxType.RootCollections())

	coll, ok := ctxType.Collection("customers")
	assert.True(t, ok)
	assert.Equal(t, "shop.Customer", coll.ElementType)
}

func TestSimpleName(t *testing.T) {
	assert.Equal(t, "ParentEntity", SimpleName("shop.ParentEntity"))
	assert.Equal(t, "Node", SimpleName("a.b.Node"))
	assert.Equal(t, "C", SimpleName("a/b.C"))
	assert.Equal(t, "Plain", SimpleName("Plain"))
}
