// Package typedroutes validates Echo requests against type-annotated
// request structs and derives an OpenAPI document from the same bindings.
package typedroutes

import (
	"regexp"
	"sync"

	"github.com/okairos/typedroutes/binding"
	"github.com/okairos/typedroutes/field"
	"github.com/okairos/typedroutes/openapi"
)

// RouteRecord captures everything known about a registered route: the rule,
// its resolved schema, and the documentation overrides. Records are created
// at registration time and live for the process lifetime.
type RouteRecord struct {
	Method       string
	Rule         string // full Echo rule, group prefixes included
	Name         string
	PathParams   []string
	HandlerName  string
	Validated    bool
	Schema       *binding.Schema
	Dependencies []*field.Dependency

	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	StatusCode  int
	Responses   map[string]openapi.Response

	optIn  bool
	optOut bool
}

// RouteRegistry is the side table associating registered handlers with
// their metadata, replacing the original design's attribute tagging of
// callables.
type RouteRegistry struct {
	mu     sync.RWMutex
	routes []RouteRecord
}

// Register appends a route record.
func (r *RouteRegistry) Register(record *RouteRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, cloneRecord(record))
}

// Routes returns a copy of every registered record.
func (r *RouteRegistry) Routes() []RouteRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RouteRecord, len(r.routes))
	for i := range r.routes {
		out[i] = cloneRecord(&r.routes[i])
	}
	return out
}

// Count returns the number of registered routes.
func (r *RouteRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// Clear removes all records; useful in tests.
func (r *RouteRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = nil
}

func cloneRecord(rec *RouteRecord) RouteRecord {
	out := *rec
	if rec.PathParams != nil {
		out.PathParams = append([]string(nil), rec.PathParams...)
	}
	if rec.Tags != nil {
		out.Tags = append([]string(nil), rec.Tags...)
	}
	if rec.Dependencies != nil {
		out.Dependencies = append([]*field.Dependency(nil), rec.Dependencies...)
	}
	if rec.Responses != nil {
		responses := make(map[string]openapi.Response, len(rec.Responses))
		for k, v := range rec.Responses {
			responses[k] = v
		}
		out.Responses = responses
	}
	return out
}

// RouteOption configures a route record during registration.
type RouteOption func(*RouteRecord)

// WithName overrides the route name used for schema and operation naming.
func WithName(name string) RouteOption {
	return func(r *RouteRecord) { r.Name = name }
}

// WithSummary sets the OpenAPI operation summary.
func WithSummary(summary string) RouteOption {
	return func(r *RouteRecord) { r.Summary = summary }
}

// WithDescription sets the OpenAPI operation description.
func WithDescription(description string) RouteOption {
	return func(r *RouteRecord) { r.Description = description }
}

// WithTags adds OpenAPI grouping tags.
func WithTags(tags ...string) RouteOption {
	return func(r *RouteRecord) { r.Tags = append(r.Tags, tags...) }
}

// WithDeprecated marks the operation deprecated in documentation.
func WithDeprecated() RouteOption {
	return func(r *RouteRecord) { r.Deprecated = true }
}

// WithStatusCode declares the success status documented for the route.
func WithStatusCode(status int) RouteOption {
	return func(r *RouteRecord) { r.StatusCode = status }
}

// WithResponse documents an additional response for the route.
func WithResponse(status string, response openapi.Response) RouteOption {
	return func(r *RouteRecord) {
		if r.Responses == nil {
			r.Responses = make(map[string]openapi.Response)
		}
		r.Responses[status] = response
	}
}

// WithDependencies attaches per-request dependencies, executed in the given
// order before validation.
func WithDependencies(deps ...*field.Dependency) RouteOption {
	return func(r *RouteRecord) { r.Dependencies = append(r.Dependencies, deps...) }
}

// Validated opts the route into validation under manual mode.
func Validated() RouteOption {
	return func(r *RouteRecord) { r.optIn = true }
}

// SkipValidation opts the route out of validation under auto mode.
func SkipValidation() RouteOption {
	return func(r *RouteRecord) { r.optOut = true }
}

var ruleParamPattern = regexp.MustCompile(`:([^/]+)`)

// PathParams extracts the placeholder names from an Echo route rule.
func PathParams(rule string) []string {
	matches := ruleParamPattern.FindAllStringSubmatch(rule, -1)
	params := make([]string, 0, len(matches))
	for _, m := range matches {
		params = append(params, m[1])
	}
	return params
}
