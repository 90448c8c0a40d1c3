package openapi

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypeSchema(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want map[string]any
	}{
		{"string", reflect.TypeOf(""), map[string]any{"type": "string"}},
		{"int", reflect.TypeOf(0), map[string]any{"type": "integer"}},
		{"uint pointer", reflect.TypeOf((*uint)(nil)), map[string]any{"type": "integer"}},
		{"float", reflect.TypeOf(0.0), map[string]any{"type": "number"}},
		{"bool", reflect.TypeOf(false), map[string]any{"type": "boolean"}},
		{"time", reflect.TypeOf(time.Time{}), map[string]any{"type": "string", "format": "date-time"}},
		{"bytes", reflect.TypeOf([]byte{}), map[string]any{"type": "string", "format": "byte"}},
		{
			"string slice",
			reflect.TypeOf([]string{}),
			map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, typeSchema(tt.typ))
		})
	}
}

func TestApplyConstraints(t *testing.T) {
	stringType := reflect.TypeOf("")
	intType := reflect.TypeOf(0)
	floatType := reflect.TypeOf(0.0)
	sliceType := reflect.TypeOf([]string{})

	tests := []struct {
		name string
		typ  reflect.Type
		tag  string
		want map[string]any
	}{
		{"string min max", stringType, "min=2,max=50", map[string]any{"minLength": 2, "maxLength": 50}},
		{"string len", stringType, "len=8", map[string]any{"minLength": 8, "maxLength": 8}},
		{"numeric min max", intType, "min=1,max=100", map[string]any{"minimum": int64(1), "maximum": int64(100)}},
		{"exclusive bounds", floatType, "gt=0,lt=10", map[string]any{"exclusiveMinimum": int64(0), "exclusiveMaximum": int64(10)}},
		{"inclusive bounds", intType, "gte=1,lte=9", map[string]any{"minimum": int64(1), "maximum": int64(9)}},
		{"string enum", stringType, "oneof=asc desc", map[string]any{"enum": []any{"asc", "desc"}}},
		{"numeric enum", intType, "oneof=1 2 3", map[string]any{"enum": []any{int64(1), int64(2), int64(3)}}},
		{"email format", stringType, "required,email", map[string]any{"format": "email"}},
		{"uuid format", stringType, "uuid4", map[string]any{"format": "uuid"}},
		{"url format", stringType, "url", map[string]any{"format": "uri"}},
		{"pattern", stringType, "regexp=^[a-z]+$", map[string]any{"pattern": "^[a-z]+$"}},
		{"array item count", sliceType, "min=1,max=5", map[string]any{"minItems": 1, "maxItems": 5}},
		{"array exact count", sliceType, "len=3", map[string]any{"minItems": 3, "maxItems": 3}},
		{"skipped rules", stringType, "required,omitempty", map[string]any{}},
		{"unparseable values ignored", intType, "min=abc", map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := map[string]any{}
			applyConstraints(schema, tt.typ, tt.tag)
			assert.Equal(t, tt.want, schema)
		})
	}
}

func TestTemplatePath(t *testing.T) {
	tests := []struct {
		rule string
		want string
	}{
		{"/items/:id", "/items/{id}"},
		{"/users/:user_id/posts/:post_id", "/users/{user_id}/posts/{post_id}"},
		{"/plain", "/plain"},
		{"/:a/:b", "/{a}/{b}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TemplatePath(tt.rule), "rule %q", tt.rule)
	}
}
