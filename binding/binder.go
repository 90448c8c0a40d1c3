package binding

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/okairos/typedroutes/field"
)

// HandlerFunc is the typed handler signature: the populated, validated
// request struct is injected alongside the live Echo context.
type HandlerFunc[T any] func(c echo.Context, req T) error

// Binder owns the validation engine and runs the per-request pipeline:
// collect raw values, coerce them into the request struct, validate, and
// either inject or fail with a request-shaped error list.
type Binder struct {
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewBinder creates a Binder around a fresh validation engine. The engine
// reports wire names (location-tag alias, json tag, or snake_cased member
// name) so error paths can be remapped without guessing.
func NewBinder(logger zerolog.Logger) *Binder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireTagName)
	return &Binder{validate: v, logger: logger}
}

// Validator exposes the underlying engine so hosts can register custom
// constraint rules.
func (b *Binder) Validator() *validator.Validate {
	return b.validate
}

// Wrap produces an Echo handler running dependencies and validation before
// the typed handler. With no schema and no dependencies the pipeline is
// skipped outright and the typed handler is invoked with a zero request.
func Wrap[T any](b *Binder, schema *Schema, deps []*field.Dependency, handler HandlerFunc[T]) echo.HandlerFunc {
	if schema == nil && len(deps) == 0 {
		return func(c echo.Context) error {
			var req T
			return handler(c, req)
		}
	}
	return func(c echo.Context) error {
		ctx := field.EchoContext(c)
		// Dependencies run first, in declaration order; their errors
		// propagate unchanged.
		for _, dep := range deps {
			if _, err := dep.Value(ctx); err != nil {
				return err
			}
		}
		var req T
		if schema != nil {
			if err := b.Bind(ctx, schema, &req); err != nil {
				return err
			}
		}
		return handler(c, req)
	}
}

// Bind runs the collect/coerce/validate pipeline for one request. target
// must be a pointer to the schema's request struct. On failure it returns a
// *ValidationError whose locs match the request shape; the handler must not
// be called.
func (b *Binder) Bind(ctx field.RequestContext, schema *Schema, target any) error {
	values := collect(schema.Fields, ctx)

	rv := reflect.ValueOf(target).Elem()
	errs := populate(rv, schema.Fields, values)
	if len(errs) > 0 {
		return NewValidationError(errs...)
	}

	if err := b.validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			// Non-field engine failures indicate a definition bug, not bad input.
			b.logger.Error().Err(err).Str("schema", schema.Name).Msg("validation engine rejected request model")
			return err
		}
		return NewValidationError(b.remap(schema, verrs)...)
	}
	return nil
}

// collect pulls the raw value of every bindable field, keyed by locator.
// Absent fields are skipped so defaults and required checks apply downstream.
func collect(fields []field.Field, ctx field.RequestContext) map[string]any {
	values := make(map[string]any, len(fields))
	for i := range fields {
		f := &fields[i]
		if f.Kind == field.KindDependency {
			continue
		}
		if v, ok := f.Value(ctx); ok {
			values[f.Locator()] = v
		}
	}
	return values
}

// remap rewrites engine error paths into request shape: the first namespace
// segment is the wire name, which resolves to a field whose kind (and alias,
// when present) prefix the remaining path.
func (b *Binder) remap(schema *Schema, verrs validator.ValidationErrors) []FieldError {
	errs := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		segments := strings.Split(fe.Namespace(), ".")
		if len(segments) > 1 {
			segments = segments[1:] // drop the root struct name
		}
		head, headIdx := splitIndexes(segments[0])

		var loc []any
		if f := schema.FieldByLocator(head); f != nil {
			suffix := append(headIdx, expandSegments(segments[1:])...)
			loc = errorLoc(f, suffix...)
		} else {
			// Engine reported a path we cannot attribute; keep it verbatim.
			loc = expandSegments(segments)
		}
		errs = append(errs, FieldError{
			Loc:   loc,
			Msg:   engineErrorMessage(fe),
			Type:  engineErrorType(fe),
			Input: fe.Value(),
		})
	}
	return errs
}

// expandSegments converts namespace segments into loc elements, unpacking
// slice indexes ("tags[2]" -> "tags", 2).
func expandSegments(segments []string) []any {
	out := make([]any, 0, len(segments))
	for _, seg := range segments {
		name, idx := splitIndexes(seg)
		if name != "" {
			out = append(out, name)
		}
		out = append(out, idx...)
	}
	return out
}

func splitIndexes(segment string) (string, []any) {
	open := strings.IndexByte(segment, '[')
	if open < 0 {
		return segment, nil
	}
	name := segment[:open]
	var idx []any
	rest := segment[open:]
	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		if n, err := strconv.Atoi(rest[1:end]); err == nil {
			idx = append(idx, n)
		} else {
			idx = append(idx, rest[1:end])
		}
		rest = rest[end+1:]
	}
	return name, idx
}

// wireTagName reports the wire-visible name of a struct member to the
// validation engine: the location-tag alias when declared, otherwise the
// json tag, otherwise the snake_cased member name.
func wireTagName(sf reflect.StructField) string {
	for _, lt := range locationTags {
		value, ok := sf.Tag.Lookup(lt.key)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(value, ",")
		name = strings.TrimSpace(name)
		if name != "" && name != "-" {
			return name
		}
		break
	}
	return field.WireName(sf)
}
