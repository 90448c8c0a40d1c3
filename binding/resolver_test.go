package binding

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okairos/typedroutes/field"
)

type productFilter struct {
	Name  string `json:"name" validate:"required"`
	Brand string `json:"brand"`
}

func resolveType(t *testing.T, target any, pathParams ...string) []field.Field {
	t.Helper()
	fields, err := Resolve(reflect.TypeOf(target), "test_route", pathParams)
	require.NoError(t, err)
	return fields
}

func TestResolveKindInference(t *testing.T) {
	type request struct {
		ID     int
		Limit  int
		Filter productFilter
	}
	fields := resolveType(t, request{}, "id")
	require.Len(t, fields, 3)

	assert.Equal(t, field.KindPath, fields[0].Kind, "name matching a placeholder binds to path")
	assert.Equal(t, "id", fields[0].Locator())

	assert.Equal(t, field.KindQuery, fields[1].Kind, "scalars default to query")
	assert.Equal(t, "limit", fields[1].Locator())

	assert.Equal(t, field.KindBody, fields[2].Kind, "models default to body")
}

func TestResolveExplicitTags(t *testing.T) {
	type request struct {
		Session string   `cookie:"session-id" validate:"max=8"`
		Trace   string   `header:"X-Trace-ID"`
		Tags    []string `query:"tags,explode"`
		Sort    []string `query:",style=pipeDelimited"`
	}
	fields := resolveType(t, request{})
	require.Len(t, fields, 4)

	assert.Equal(t, field.KindCookie, fields[0].Kind)
	assert.Equal(t, "session-id", fields[0].Locator())
	assert.Equal(t, "max=8", fields[0].ValidateTag)

	assert.Equal(t, field.KindHeader, fields[1].Kind)
	assert.Equal(t, "X-Trace-ID", fields[1].Locator())
	assert.Equal(t, field.StyleSimple, fields[1].Style)

	assert.Equal(t, field.KindQuery, fields[2].Kind)
	assert.True(t, fields[2].Explode)
	assert.Equal(t, field.StyleForm, fields[2].Style)

	assert.Equal(t, "sort", fields[3].Locator(), "empty alias keeps the snake_cased name")
	assert.Equal(t, field.StylePipeDelimited, fields[3].Style)
}

func TestResolveDefaultsAndMetadata(t *testing.T) {
	type request struct {
		Limit int    `query:"limit" default:"10" doc:"page size" example:"25"`
		Sort  string `query:"sort" deprecated:"true"`
	}
	fields := resolveType(t, request{})
	require.Len(t, fields, 2)

	assert.True(t, fields[0].HasDefault)
	assert.Equal(t, "10", fields[0].Default)
	assert.False(t, fields[0].IsRequired())
	assert.Equal(t, "page size", fields[0].Description)
	assert.Equal(t, "25", fields[0].Example)

	assert.True(t, fields[1].Deprecated)
}

func TestResolveBodyAliases(t *testing.T) {
	type request struct {
		Item  productFilter
		Count int `body:"count"`
	}
	// Whole-body models cannot coexist with body members; split the checks.
	fields := resolveType(t, struct{ Item productFilter }{})
	require.Len(t, fields, 1)
	assert.Equal(t, field.KindBody, fields[0].Kind)
	assert.Empty(t, fields[0].Alias, "whole-body bindings carry no alias")

	fields = resolveType(t, struct {
		Count int `body:"count"`
	}{})
	require.Len(t, fields, 1)
	assert.Equal(t, "count", fields[0].Alias)

	_, err := Resolve(reflect.TypeOf(request{}), "r", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple body parameters")
}

func TestResolveEmbeddedBodyModels(t *testing.T) {
	type request struct {
		Filter productFilter `body:"filter,embed"`
		Extra  productFilter `body:",embed"`
	}
	fields := resolveType(t, request{})
	require.Len(t, fields, 2)
	assert.Equal(t, "filter", fields[0].Alias)
	assert.True(t, fields[0].Embed)
	assert.Equal(t, "extra", fields[1].Alias, "embed without alias defaults to the member name")
}

func TestResolveRejections(t *testing.T) {
	tests := []struct {
		name    string
		target  any
		params  []string
		wantMsg string
	}{
		{
			name: "path alias mismatch",
			target: struct {
				ID int `path:"ident"`
			}{},
			params:  []string{"id"},
			wantMsg: "path bindings keep the placeholder name",
		},
		{
			name: "path without placeholder",
			target: struct {
				ID int `path:"id"`
			}{},
			wantMsg: "does not match any route placeholder",
		},
		{
			name: "alias on whole-body model",
			target: struct {
				Item productFilter `body:"item"`
			}{},
			wantMsg: "unless embedded",
		},
		{
			name: "duplicate wire names",
			target: struct {
				A string `query:"q"`
				B string `query:"q"`
			}{},
			wantMsg: "duplicate parameter",
		},
		{
			name: "two whole-body models",
			target: struct {
				A productFilter
				B productFilter
			}{},
			wantMsg: "multiple body parameters",
		},
		{
			name: "multiple location tags",
			target: struct {
				A string `query:"a" header:"a"`
			}{},
			wantMsg: "multiple location tags",
		},
		{
			name: "unknown style",
			target: struct {
				A []string `query:"a,style=matrix"`
			}{},
			wantMsg: "unknown serialization style",
		},
		{
			name: "style on path",
			target: struct {
				ID int `path:"id,style=form"`
			}{},
			params:  []string{"id"},
			wantMsg: "not supported for path",
		},
		{
			name: "embed outside body",
			target: struct {
				A productFilter `query:"a,embed"`
			}{},
			wantMsg: "embed is only valid for body fields",
		},
		{
			name: "unknown option",
			target: struct {
				A string `query:"a,verbose"`
			}{},
			wantMsg: "unknown binding option",
		},
		{
			name: "unsupported type",
			target: struct {
				Ch chan int `query:"ch"`
			}{},
			wantMsg: "unsupported type",
		},
		{
			name: "bad default",
			target: struct {
				Limit int `query:"limit" default:"ten"`
			}{},
			wantMsg: "is not a valid int",
		},
		{
			name:    "non-struct target",
			target:  "not a struct",
			wantMsg: "must be a struct",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(reflect.TypeOf(tt.target), "test_route", tt.params)
			require.Error(t, err)
			assert.ErrorAs(t, err, new(*field.InvalidParameterError))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestResolveSkipsUnexported(t *testing.T) {
	type request struct {
		Limit  int `query:"limit"`
		hidden string
	}
	fields := resolveType(t, request{hidden: ""})
	assert.Len(t, fields, 1)
}

func TestResolveNonBodyModelHasNoAlias(t *testing.T) {
	type request struct {
		Filter productFilter `query:""`
	}
	fields := resolveType(t, request{})
	require.Len(t, fields, 1)
	assert.Equal(t, field.KindQuery, fields[0].Kind)
	assert.Empty(t, fields[0].Alias, "object parameters address sub-values by member name")
}

func TestBuildSchema(t *testing.T) {
	type request struct {
		ID    int `path:"id"`
		Limit int `query:"limit"`
	}
	fields := resolveType(t, request{}, "id")

	s := BuildSchema("get_product", reflect.TypeOf(request{}), fields)
	require.NotNil(t, s)
	assert.Equal(t, "get_product_validator", s.Name)
	assert.Len(t, s.Fields, 2)

	require.NotNil(t, s.FieldByLocator("limit"))
	assert.Nil(t, s.FieldByLocator("unknown"))

	assert.Len(t, s.ParameterFields(), 2)
	assert.Empty(t, s.BodyFields())
}

func TestBuildSchemaEmpty(t *testing.T) {
	s := BuildSchema("noop", reflect.TypeOf(struct{}{}), nil)
	assert.Nil(t, s, "no bindable fields means no schema")
}
