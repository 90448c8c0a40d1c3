package binding

import (
	"reflect"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okairos/typedroutes/field"
)

func populateType(t *testing.T, target any, values map[string]any, pathParams ...string) (reflect.Value, []FieldError) {
	t.Helper()
	tt := reflect.TypeOf(target)
	fields, err := Resolve(tt, "test_route", pathParams)
	require.NoError(t, err)
	rv := reflect.New(tt).Elem()
	return rv, populate(rv, fields, values)
}

func TestPopulateScalars(t *testing.T) {
	type request struct {
		ID     int     `path:"id"`
		Limit  int     `query:"limit"`
		Score  float64 `query:"score"`
		Active bool    `query:"active"`
		Name   string  `query:"name"`
	}
	rv, errs := populateType(t, request{}, map[string]any{
		"id":     "42",
		"limit":  "10",
		"score":  "9.5",
		"active": "true",
		"name":   "box",
	}, "id")
	require.Empty(t, errs)

	req := rv.Interface().(request)
	assert.Equal(t, 42, req.ID)
	assert.Equal(t, 10, req.Limit)
	assert.Equal(t, 9.5, req.Score)
	assert.True(t, req.Active)
	assert.Equal(t, "box", req.Name)
}

func TestPopulatePointersAndTime(t *testing.T) {
	type request struct {
		Limit *int      `query:"limit"`
		Since time.Time `query:"since"`
	}
	rv, errs := populateType(t, request{}, map[string]any{
		"limit": "7",
		"since": "2026-01-02T15:04:05Z",
	})
	require.Empty(t, errs)

	req := rv.Interface().(request)
	require.NotNil(t, req.Limit)
	assert.Equal(t, 7, *req.Limit)
	assert.Equal(t, 2026, req.Since.Year())
}

func TestPopulateDateOnly(t *testing.T) {
	type request struct {
		Day time.Time `query:"day"`
	}
	rv, errs := populateType(t, request{}, map[string]any{"day": "2026-08-28"})
	require.Empty(t, errs)
	assert.Equal(t, time.August, rv.Interface().(request).Day.Month())
}

func TestPopulateMissingRequired(t *testing.T) {
	type request struct {
		Name  string `query:"name"`
		Limit *int   `query:"limit"`
	}
	_, errs := populateType(t, request{}, map[string]any{})
	require.Len(t, errs, 1, "optional pointer fields never report missing")

	assert.Equal(t, []any{"query", "name"}, errs[0].Loc)
	assert.Equal(t, "missing", errs[0].Type)
	assert.Equal(t, "Field required", errs[0].Msg)
}

func TestPopulateDefaults(t *testing.T) {
	type request struct {
		Limit int    `query:"limit" default:"10"`
		Sort  string `query:"sort" default:"asc"`
	}
	rv, errs := populateType(t, request{}, map[string]any{"sort": "desc"})
	require.Empty(t, errs)

	req := rv.Interface().(request)
	assert.Equal(t, 10, req.Limit, "absent field takes its default")
	assert.Equal(t, "desc", req.Sort, "present field overrides its default")
}

func TestPopulateCoercionFailures(t *testing.T) {
	type request struct {
		Limit  int       `query:"limit"`
		Score  float64   `query:"score"`
		Active bool      `query:"active"`
		Since  time.Time `header:"X-Since"`
	}
	_, errs := populateType(t, request{}, map[string]any{
		"limit":   "ten",
		"score":   "high",
		"active":  "maybe",
		"X-Since": "yesterday",
	})
	require.Len(t, errs, 4)

	byType := make(map[string]FieldError, len(errs))
	for _, e := range errs {
		byType[e.Type] = e
	}

	require.Contains(t, byType, "int_parsing")
	assert.Equal(t, []any{"query", "limit"}, byType["int_parsing"].Loc)
	assert.Equal(t, "ten", byType["int_parsing"].Input)

	require.Contains(t, byType, "float_parsing")
	require.Contains(t, byType, "bool_parsing")

	require.Contains(t, byType, "datetime_parsing")
	assert.Equal(t, []any{"header", "X-Since"}, byType["datetime_parsing"].Loc)
}

func TestPopulateSlices(t *testing.T) {
	type request struct {
		Tags []string `query:"tags,explode"`
		Nums []int    `query:"nums"`
	}
	rv, errs := populateType(t, request{}, map[string]any{
		"tags": []string{"a", "b"},
		"nums": []string{"1", "2", "3"},
	})
	require.Empty(t, errs)

	req := rv.Interface().(request)
	assert.Equal(t, []string{"a", "b"}, req.Tags)
	assert.Equal(t, []int{1, 2, 3}, req.Nums)
}

func TestPopulateSliceElementErrors(t *testing.T) {
	type request struct {
		Nums []int `query:"nums"`
	}
	_, errs := populateType(t, request{}, map[string]any{
		"nums": []string{"1", "x", "3"},
	})
	require.Len(t, errs, 1)
	assert.Equal(t, []any{"query", "nums", 1}, errs[0].Loc, "element index extends the loc path")
	assert.Equal(t, "int_parsing", errs[0].Type)
}

func TestPopulateNestedModel(t *testing.T) {
	type filter struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	type request struct {
		Filter filter `query:""`
	}
	rv, errs := populateType(t, request{}, map[string]any{
		"filter": map[string]any{
			"name": "shoes",
			"tags": []string{"red", "blue"},
		},
	})
	require.Empty(t, errs)

	req := rv.Interface().(request)
	assert.Equal(t, "shoes", req.Filter.Name)
	assert.Equal(t, []string{"red", "blue"}, req.Filter.Tags)
}

func TestPopulateNestedModelMemberError(t *testing.T) {
	type filter struct {
		Limit int `json:"limit"`
	}
	type request struct {
		Filter filter `query:""`
	}
	_, errs := populateType(t, request{}, map[string]any{
		"filter": map[string]any{"limit": "ten"},
	})
	require.Len(t, errs, 1)
	assert.Equal(t, []any{"query", "limit"}, errs[0].Loc)
	assert.Equal(t, "int_parsing", errs[0].Type)
}

func TestPopulateBody(t *testing.T) {
	type item struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	}
	type request struct {
		Item item
	}
	rv, errs := populateType(t, request{}, map[string]any{
		"item": gojson.RawMessage(`{"name":"box","size":3}`),
	})
	require.Empty(t, errs)

	req := rv.Interface().(request)
	assert.Equal(t, "box", req.Item.Name)
	assert.Equal(t, 3, req.Item.Size)
}

func TestPopulateBodyTypeMismatch(t *testing.T) {
	type item struct {
		Size int `json:"size"`
	}
	type request struct {
		Item item
	}
	_, errs := populateType(t, request{}, map[string]any{
		"item": gojson.RawMessage(`{"size":"three"}`),
	})
	require.Len(t, errs, 1)
	assert.Equal(t, []any{"body"}, errs[0].Loc)
	assert.Equal(t, "json_invalid", errs[0].Type)
}

func TestErrorLoc(t *testing.T) {
	f := &field.Field{Kind: field.KindQuery, Name: "limit", Alias: "limit"}
	assert.Equal(t, []any{"query", "limit"}, errorLoc(f))
	assert.Equal(t, []any{"query", "limit", 2}, errorLoc(f, 2))

	whole := &field.Field{Kind: field.KindBody, Name: "item"}
	assert.Equal(t, []any{"body", "size"}, errorLoc(whole, "size"))
}
