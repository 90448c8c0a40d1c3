package binding

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/okairos/typedroutes/field"
)

var timeType = reflect.TypeOf(time.Time{})

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func isModelType(t reflect.Type) bool {
	t = deref(t)
	return t != nil && t.Kind() == reflect.Struct && t != timeType
}

// coerceError pairs an engine-style error type with a message, so raw-value
// coercion failures surface in the same taxonomy as validation failures.
type coerceError struct {
	typ string
	msg string
}

func (e *coerceError) Error() string { return e.msg }

type scalarSetter func(reflect.Value, string) error

var kindSetters = map[reflect.Kind]scalarSetter{
	reflect.String:  setStringValue,
	reflect.Int:     setSignedIntValue,
	reflect.Int8:    setSignedIntValue,
	reflect.Int16:   setSignedIntValue,
	reflect.Int32:   setSignedIntValue,
	reflect.Int64:   setSignedIntValue,
	reflect.Uint:    setUnsignedIntValue,
	reflect.Uint8:   setUnsignedIntValue,
	reflect.Uint16:  setUnsignedIntValue,
	reflect.Uint32:  setUnsignedIntValue,
	reflect.Uint64:  setUnsignedIntValue,
	reflect.Float32: setFloatValue,
	reflect.Float64: setFloatValue,
	reflect.Bool:    setBoolValue,
}

// setScalar assigns a raw string to a value, allocating pointers and
// converting to the target's kind. Failures carry engine-style error types.
func setScalar(fv reflect.Value, raw string) *coerceError {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		return setScalar(fv.Elem(), raw)
	}

	if fv.Type() == timeType {
		t, err := parseTime(raw)
		if err != nil {
			return &coerceError{typ: "datetime_parsing", msg: "Input should be a valid datetime"}
		}
		fv.Set(reflect.ValueOf(t))
		return nil
	}

	kind := fv.Kind()
	setter, ok := kindSetters[kind]
	if !ok {
		return &coerceError{typ: "value_error", msg: fmt.Sprintf("Unsupported value of kind %s", kind)}
	}
	if err := setter(fv, raw); err != nil {
		return coerceFailure(kind)
	}
	return nil
}

func coerceFailure(kind reflect.Kind) *coerceError {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &coerceError{typ: "int_parsing", msg: "Input should be a valid integer, unable to parse string as an integer"}
	case reflect.Float32, reflect.Float64:
		return &coerceError{typ: "float_parsing", msg: "Input should be a valid number, unable to parse string as a number"}
	case reflect.Bool:
		return &coerceError{typ: "bool_parsing", msg: "Input should be a valid boolean, unable to interpret input"}
	default:
		return &coerceError{typ: "string_type", msg: "Input should be a valid string"}
	}
}

func setStringValue(fv reflect.Value, raw string) error {
	fv.SetString(raw)
	return nil
}

func setSignedIntValue(fv reflect.Value, raw string) error {
	bitSize := fv.Type().Bits()
	v, err := strconv.ParseInt(raw, 10, bitSize)
	if err != nil {
		return err
	}
	fv.SetInt(v)
	return nil
}

func setUnsignedIntValue(fv reflect.Value, raw string) error {
	bitSize := fv.Type().Bits()
	v, err := strconv.ParseUint(raw, 10, bitSize)
	if err != nil {
		return err
	}
	fv.SetUint(v)
	return nil
}

func setFloatValue(fv reflect.Value, raw string) error {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	fv.SetFloat(v)
	return nil
}

func setBoolValue(fv reflect.Value, raw string) error {
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return err
	}
	fv.SetBool(v)
	return nil
}

func parseTime(raw string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		time.DateTime,
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// populate writes the collected raw values into a fresh request-struct
// instance, applying defaults for absent optional fields and reporting
// missing required fields and coercion failures in request shape.
func populate(target reflect.Value, fields []field.Field, values map[string]any) []FieldError {
	var errs []FieldError

	for i := range fields {
		f := &fields[i]
		if f.Kind == field.KindDependency {
			continue
		}
		fv := target.FieldByIndex(f.Index)
		raw, ok := values[f.Locator()]
		if !ok {
			if f.HasDefault {
				if cerr := setScalar(fv, f.Default); cerr != nil {
					errs = append(errs, FieldError{Loc: errorLoc(f), Msg: cerr.msg, Type: cerr.typ, Input: f.Default})
				}
			} else if f.IsRequired() {
				errs = append(errs, FieldError{Loc: errorLoc(f), Msg: "Field required", Type: "missing"})
			}
			continue
		}
		errs = append(errs, assignValue(f, fv, raw)...)
	}
	return errs
}

// assignValue dispatches on the raw value's shape: string for primitives,
// []string for arrays, map for objects, raw JSON for body fields.
func assignValue(f *field.Field, fv reflect.Value, raw any) []FieldError {
	switch v := raw.(type) {
	case string:
		if cerr := setScalar(fv, v); cerr != nil {
			return []FieldError{{Loc: errorLoc(f), Msg: cerr.msg, Type: cerr.typ, Input: v}}
		}
	case []string:
		return assignSlice(f, fv, v)
	case map[string]any:
		return assignModel(f, fv, v)
	case gojson.RawMessage:
		return assignJSON(f, fv, v)
	default:
		return []FieldError{{Loc: errorLoc(f), Msg: "Unexpected raw value shape", Type: "value_error", Input: raw}}
	}
	return nil
}

func assignSlice(f *field.Field, fv reflect.Value, tokens []string) []FieldError {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		fv = fv.Elem()
	}
	var errs []FieldError
	slice := reflect.MakeSlice(fv.Type(), len(tokens), len(tokens))
	for i, tok := range tokens {
		if cerr := setScalar(slice.Index(i), tok); cerr != nil {
			errs = append(errs, FieldError{Loc: errorLoc(f, i), Msg: cerr.msg, Type: cerr.typ, Input: tok})
		}
	}
	if len(errs) == 0 {
		fv.Set(slice)
	}
	return errs
}

// assignModel fills a nested model from the collected sub-value map keyed by
// wire name. Absent members stay zero; the engine's required rules decide
// whether that is acceptable.
func assignModel(f *field.Field, fv reflect.Value, values map[string]any) []FieldError {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		fv = fv.Elem()
	}
	var errs []FieldError
	t := fv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := field.WireName(sf)
		raw, ok := values[name]
		if !ok {
			continue
		}
		member := fv.Field(i)
		switch v := raw.(type) {
		case string:
			if cerr := setScalar(member, v); cerr != nil {
				errs = append(errs, FieldError{Loc: errorLoc(f, name), Msg: cerr.msg, Type: cerr.typ, Input: v})
			}
		case []string:
			if member.Kind() == reflect.Pointer {
				if member.IsNil() {
					member.Set(reflect.New(member.Type().Elem()))
				}
				member = member.Elem()
			}
			slice := reflect.MakeSlice(member.Type(), len(v), len(v))
			bad := false
			for j, tok := range v {
				if cerr := setScalar(slice.Index(j), tok); cerr != nil {
					errs = append(errs, FieldError{Loc: errorLoc(f, name, j), Msg: cerr.msg, Type: cerr.typ, Input: tok})
					bad = true
				}
			}
			if !bad {
				member.Set(slice)
			}
		}
	}
	return errs
}

func assignJSON(f *field.Field, fv reflect.Value, raw gojson.RawMessage) []FieldError {
	if err := gojson.Unmarshal(raw, fv.Addr().Interface()); err != nil {
		return []FieldError{{
			Loc:   errorLoc(f),
			Msg:   "Input should be a valid JSON value for the declared type",
			Type:  "json_invalid",
			Input: string(raw),
		}}
	}
	return nil
}

// errorLoc reconstructs the request-shaped error path for a field:
// the kind first, then the alias when the field has one, then any deeper
// path segments.
func errorLoc(f *field.Field, suffix ...any) []any {
	loc := make([]any, 0, 2+len(suffix))
	loc = append(loc, string(f.Kind))
	if f.Alias != "" {
		loc = append(loc, f.Alias)
	}
	return append(loc, suffix...)
}
