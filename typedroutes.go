package typedroutes

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"runtime"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/okairos/typedroutes/binding"
	"github.com/okairos/typedroutes/config"
	"github.com/okairos/typedroutes/openapi"
)

// Router is the subset of Echo used for registration. Both *echo.Echo and
// *echo.Group satisfy it.
type Router interface {
	Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route
}

// ErrorHandler renders a validation failure to the client. It replaces the
// default JSON rendering when installed via WithErrorHandler.
type ErrorHandler func(c echo.Context, verr *binding.ValidationError) error

// Extension ties the binder, the route registry and the settings together.
// Create one per Echo instance, register routes through it, and Install it
// so validation failures are rendered consistently.
type Extension struct {
	settings     *config.Settings
	logger       zerolog.Logger
	loggerSet    bool
	binder       *binding.Binder
	registry     *RouteRegistry
	errorHandler ErrorHandler
}

// Option configures an Extension during construction.
type Option func(*Extension)

// WithSettings supplies pre-loaded settings instead of the defaults.
func WithSettings(s *config.Settings) Option {
	return func(ext *Extension) { ext.settings = s }
}

// WithLogger replaces the extension's own logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(ext *Extension) {
		ext.logger = logger
		ext.loggerSet = true
	}
}

// WithErrorHandler replaces the default validation-error response.
func WithErrorHandler(h ErrorHandler) Option {
	return func(ext *Extension) { ext.errorHandler = h }
}

// New builds an Extension. Settings default to config.Default and are
// validated either way.
func New(opts ...Option) (*Extension, error) {
	ext := &Extension{registry: &RouteRegistry{}}
	for _, opt := range opts {
		opt(ext)
	}
	if ext.settings == nil {
		ext.settings = config.Default()
	}
	if err := config.Validate(ext.settings); err != nil {
		return nil, err
	}
	if !ext.loggerSet {
		ext.logger = NewLogger(ext.settings.Log)
	}
	ext.binder = binding.NewBinder(ext.logger)
	return ext, nil
}

// Settings returns the active settings.
func (ext *Extension) Settings() *config.Settings { return ext.settings }

// Binder exposes the request binder, mainly so hosts can register custom
// validation rules on its engine.
func (ext *Extension) Binder() *binding.Binder { return ext.binder }

// Registry returns the route registry.
func (ext *Extension) Registry() *RouteRegistry { return ext.registry }

// Install chains the extension into Echo's error handling so validation
// failures become JSON error lists at the configured status. Every other
// error falls through to the previous handler.
func (ext *Extension) Install(e *echo.Echo) {
	next := e.HTTPErrorHandler
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var verr *binding.ValidationError
		if !errors.As(err, &verr) {
			next(err, c)
			return
		}
		if c.Response().Committed {
			return
		}
		if herr := ext.renderValidationError(c, verr); herr != nil {
			ext.logger.Error().Err(herr).Str("path", c.Path()).Msg("failed to render validation error")
		}
	}
}

func (ext *Extension) renderValidationError(c echo.Context, verr *binding.ValidationError) error {
	if ext.errorHandler != nil {
		return ext.errorHandler(c, verr)
	}
	return c.JSON(ext.settings.Validation.Status, verr)
}

// Register wires a typed handler into the router. The request struct T is
// resolved once, its schema is built, and the handler is wrapped so every
// request runs dependencies, binding and validation before injection.
// Resolution errors are definition bugs and abort registration.
func Register[T any](ext *Extension, r Router, method, rule string, handler binding.HandlerFunc[T], opts ...RouteOption) (*echo.Route, error) {
	rec := &RouteRecord{Method: method, Rule: rule}
	for _, opt := range opts {
		opt(rec)
	}
	rec.HandlerName = handlerName(handler)
	if rec.Name == "" {
		rec.Name = rec.HandlerName
	}
	rec.Validated = ext.shouldValidate(method, rec)

	// The full rule, group prefix included, is only known from the route
	// Echo returns; the pipeline is bound through an indirection so the
	// schema can be resolved against the complete parameter set.
	var pipeline echo.HandlerFunc
	route := r.Add(method, rule, func(c echo.Context) error { return pipeline(c) })
	rec.Rule = route.Path
	rec.PathParams = PathParams(rec.Rule)

	var schema *binding.Schema
	if rec.Validated {
		target := reflect.TypeOf((*T)(nil)).Elem()
		fields, err := binding.Resolve(target, rec.Name, rec.PathParams)
		if err != nil {
			// The route is already mounted; make sure a request cannot hit a
			// half-registered pipeline if the caller ignores the error.
			pipeline = func(c echo.Context) error { return echo.ErrInternalServerError }
			ext.logger.Error().Err(err).Str("method", method).Str("rule", rec.Rule).Msg("route registration failed")
			return nil, fmt.Errorf("route %s %s: %w", method, rec.Rule, err)
		}
		schema = binding.BuildSchema(strings.ToLower(method)+"_"+rec.Name, target, fields)
	}
	rec.Schema = schema
	pipeline = binding.Wrap(ext.binder, schema, rec.Dependencies, handler)

	ext.registry.Register(rec)
	ext.logger.Debug().
		Str("method", method).
		Str("rule", rec.Rule).
		Str("name", rec.Name).
		Bool("validated", rec.Validated).
		Msg("registered typed route")
	return route, nil
}

// GET registers a typed GET route.
func GET[T any](ext *Extension, r Router, rule string, handler binding.HandlerFunc[T], opts ...RouteOption) (*echo.Route, error) {
	return Register(ext, r, http.MethodGet, rule, handler, opts...)
}

// POST registers a typed POST route.
func POST[T any](ext *Extension, r Router, rule string, handler binding.HandlerFunc[T], opts ...RouteOption) (*echo.Route, error) {
	return Register(ext, r, http.MethodPost, rule, handler, opts...)
}

// PUT registers a typed PUT route.
func PUT[T any](ext *Extension, r Router, rule string, handler binding.HandlerFunc[T], opts ...RouteOption) (*echo.Route, error) {
	return Register(ext, r, http.MethodPut, rule, handler, opts...)
}

// PATCH registers a typed PATCH route.
func PATCH[T any](ext *Extension, r Router, rule string, handler binding.HandlerFunc[T], opts ...RouteOption) (*echo.Route, error) {
	return Register(ext, r, http.MethodPatch, rule, handler, opts...)
}

// DELETE registers a typed DELETE route.
func DELETE[T any](ext *Extension, r Router, rule string, handler binding.HandlerFunc[T], opts ...RouteOption) (*echo.Route, error) {
	return Register(ext, r, http.MethodDelete, rule, handler, opts...)
}

// shouldValidate applies the verb filter, the mode, and the per-route opt
// flags, in that order. Ignored verbs are never validated.
func (ext *Extension) shouldValidate(method string, rec *RouteRecord) bool {
	for _, verb := range ext.settings.Validation.IgnoreVerbs {
		if strings.EqualFold(verb, method) {
			return false
		}
	}
	if ext.settings.Mode == config.ModeManual {
		return rec.optIn
	}
	return !rec.optOut
}

// OpenAPIDocument projects every registered route into an OpenAPI document
// using the doc settings for the info block.
func (ext *Extension) OpenAPIDocument() (*openapi.Document, error) {
	info := openapi.Info{
		Title:       ext.settings.Doc.Title,
		Version:     ext.settings.Doc.Version,
		Description: ext.settings.Doc.Description,
	}
	projector := openapi.NewProjector(info, ext.settings.Validation.Status)

	records := ext.registry.Routes()
	routes := make([]openapi.Route, 0, len(records))
	for _, rec := range records {
		routes = append(routes, openapi.Route{
			Method:      rec.Method,
			Rule:        rec.Rule,
			Name:        rec.Name,
			Schema:      rec.Schema,
			Validated:   rec.Validated,
			Summary:     rec.Summary,
			Description: rec.Description,
			Tags:        rec.Tags,
			Deprecated:  rec.Deprecated,
			StatusCode:  rec.StatusCode,
			Responses:   rec.Responses,
		})
	}
	return projector.Document(routes)
}

// OpenAPIJSON renders the projected document as JSON.
func (ext *Extension) OpenAPIJSON() ([]byte, error) {
	doc, err := ext.OpenAPIDocument()
	if err != nil {
		return nil, err
	}
	return doc.JSON()
}

// OpenAPIYAML renders the projected document as YAML.
func (ext *Extension) OpenAPIYAML() ([]byte, error) {
	doc, err := ext.OpenAPIDocument()
	if err != nil {
		return nil, err
	}
	return doc.YAML()
}

// DocumentHandler serves the OpenAPI document as JSON, ready to mount on
// any route.
func (ext *Extension) DocumentHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := ext.OpenAPIJSON()
		if err != nil {
			return err
		}
		return c.JSONBlob(http.StatusOK, data)
	}
}

// handlerName derives the default route name from the handler's function
// name, trimmed of package path and method-value suffix.
func handlerName(handler any) string {
	fn := runtime.FuncForPC(reflect.ValueOf(handler).Pointer())
	if fn == nil {
		return "handler"
	}
	name := fn.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
