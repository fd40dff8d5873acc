package rootquery

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gql-automap/internal/datacontext"
	"gql-automap/internal/entitygraph"
	"gql-automap/internal/fieldservice"
	"gql-automap/internal/metadata"
	"gql-automap/internal/scalars"
)

func exampleModel() *metadata.Model {
	return metadata.MustModel(
		&metadata.Entity{
			Type:        "shop.ParentEntity",
			Properties:  []metadata.Property{{Name: "Name", Type: "string"}},
			Navigations: []metadata.Navigation{{Name: "Children", Target: "shop.ChildEntity", Collection: true}},
		},
		&metadata.Entity{
			Type:       "shop.ChildEntity",
			Properties: []metadata.Property{{Name: "Id", Type: "int"}},
		},
	)
}

func exampleContext() metadata.ContextType {
	return metadata.ContextType{
		Name: "shop.ShopContext",
		Collections: []metadata.Collection{
			{Name: "parentEntities", ElementType: "shop.ParentEntity"},
			{Name: "childEntities", ElementType: "shop.ChildEntity"},
			{Name: "plainDtos", ElementType: "shop.PlainDto"},
		},
	}
}

type fixture struct {
	query   *fieldservice.FieldSet
	fields  []Field
	schema  graphql.Schema
	logs    *bytes.Buffer
	builder *entitygraph.Builder
}

func build(t *testing.T, ctxType metadata.ContextType, connections bool) (*fixture, error) {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	model := exampleModel()
	set := scalars.NewSet()
	service := fieldservice.New(set, fieldservice.Options{})
	members := datacontext.Members(model, ctxType)
	graph := entitygraph.New(entitygraph.Config{
		Provider: model,
		Members:  members,
		Service:  service,
		Scalars:  set,
		Logger:   logger,
	})

	query := fieldservice.NewFieldSet("Query")
	fields, err := New(Config{
		Context:     ctxType,
		Members:     members,
		Service:     service,
		Graph:       graph,
		Connections: connections,
		Logger:      logger,
	}).Build(query)
	if err != nil {
		return nil, err
	}

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: query.Fields()}),
	})
	require.NoError(t, err)
	return &fixture{query: query, fields: fields, schema: schema, logs: logs, builder: graph}, nil
}

func exampleStore() *datacontext.Store {
	child := map[string]interface{}{"Id": 1}
	store := datacontext.NewStore("shop")
	store.Add("parentEntities", map[string]interface{}{
		"Name":     "Alpha",
		"Children": []interface{}{child},
	})
	store.Add("childEntities", child)
	store.Add("plainDtos", map[string]interface{}{"Anything": true}, map[string]interface{}{})
	return store
}

func execute(f *fixture, dc datacontext.Context, query string) *graphql.Result {
	ctx := context.Background()
	if dc != nil {
		ctx = datacontext.WithContext(ctx, dc)
	}
	return graphql.Do(graphql.Params{Schema: f.schema, RequestString: query, Context: ctx})
}

func TestBuildRegistersOneFieldPerCollection(t *testing.T) {
	f, err := build(t, exampleContext(), false)
	require.NoError(t, err)

	assert.Equal(t, []string{"parentEntities", "childEntities", "plainDtos"}, f.query.Names())
	require.Len(t, f.fields, 3)
	for i, coll := range exampleContext().Collections {
		assert.Equal(t, coll.Name, f.fields[i].Name)
		assert.Equal(t, coll, f.fields[i].Collection)
		assert.Nil(t, f.fields[i].Connection)
	}

	parents := f.fields[0]
	assert.Equal(t, "[ParentEntity]", parents.Definition.Type.String())
	assert.Equal(t, "ParentEntity", parents.Node.Name)
}

func TestParentChildExample(t *testing.T) {
	f, err := build(t, exampleContext(), false)
	require.NoError(t, err)

	parent := f.fields[0].Node
	var shape []string
	for _, name := range parent.Fields.Names() {
		field, _ := parent.Fields.Field(name)
		shape = append(shape, name+": "+field.Type.String())
	}
	assert.Equal(t, []string{"name: String!", "children: [ChildEntity]"}, shape)

	result := execute(f, exampleStore(), `{ parentEntities { name children { id } } }`)
	require.Empty(t, result.Errors)
	assert.Equal(t, map[string]interface{}{
		"parentEntities": []interface{}{
			map[string]interface{}{
				"name":     "Alpha",
				"children": []interface{}{map[string]interface{}{"id": 1}},
			},
		},
	}, result.Data)
}

func TestElementWithoutMetadataIsEmptyButQueryable(t *testing.T) {
	f, err := build(t, exampleContext(), false)
	require.NoError(t, err)

	dto := f.fields[2].Node
	assert.Equal(t, "PlainDto", dto.Name)
	assert.False(t, dto.Mapped)
	assert.Zero(t, dto.Fields.Len())
	assert.Contains(t, f.logs.String(), "collection element type has no entity metadata")
	assert.Contains(t, f.logs.String(), "plainDtos")

	result := execute(f, exampleStore(), `{ plainDtos { __typename } }`)
	require.Empty(t, result.Errors)
	assert.Equal(t, map[string]interface{}{
		"plainDtos": []interface{}{
			map[string]interface{}{"__typename": "PlainDto"},
			map[string]interface{}{"__typename": "PlainDto"},
		},
	}, result.Data)
}

func TestConnectionsAreOptIn(t *testing.T) {
	f, err := build(t, exampleContext(), true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"parentEntities", "parentEntitiesConnection",
		"childEntities", "childEntitiesConnection",
		"plainDtos", "plainDtosConnection",
	}, f.query.Names())
	require.NotNil(t, f.fields[0].Connection)
	assert.Equal(t, "ParentEntityConnection!", f.fields[0].Connection.Type.String())

	result := execute(f, exampleStore(), `{ childEntitiesConnection { totalCount nodes { id } } }`)
	require.Empty(t, result.Errors)
	conn := result.Data.(map[string]interface{})["childEntitiesConnection"].(map[string]interface{})
	assert.Equal(t, 1, conn["totalCount"])
}

func TestResolutionErrors(t *testing.T) {
	f, err := build(t, exampleContext(), false)
	require.NoError(t, err)

	result := execute(f, nil, `{ childEntities { id } }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, datacontext.ErrNoContext.Error())

	result = execute(f, datacontext.NewStore("empty"), `{ childEntities { id } }`)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "unknown collection")
}

func TestBuildConfigurationFaults(t *testing.T) {
	tests := []struct {
		name    string
		ctxType metadata.ContextType
	}{
		{
			name: "duplicate collection",
			ctxType: metadata.ContextType{Name: "shop.Ctx", Collections: []metadata.Collection{
				{Name: "items", ElementType: "shop.ChildEntity"},
				{Name: "items", ElementType: "shop.ParentEntity"},
			}},
		},
		{
			name:    "unnamed context",
			ctxType: metadata.ContextType{Collections: []metadata.Collection{{Name: "items", ElementType: "shop.ChildEntity"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := build(t, tt.ctxType, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, entitygraph.ErrConfiguration)
		})
	}

	_, err := New(Config{Context: exampleContext()}).Build(fieldservice.NewFieldSet("Query"))
	assert.Error(t, err)
}

func TestCollectionsShareElementNodes(t *testing.T) {
	ctxType := metadata.ContextType{
		Name: "shop.Ctx",
		Collections: []metadata.Collection{
			{Name: "children", ElementType: "shop.ChildEntity"},
			{Name: "parents", ElementType: "shop.ParentEntity"},
			{Name: "moreChildren", ElementType: "shop.ChildEntity"},
		},
	}
	f, err := build(t, ctxType, false)
	require.NoError(t, err)

	assert.Same(t, f.fields[0].Node, f.fields[2].Node)
	assert.Len(t, f.builder.Nodes(), 2)
}
