package field

// DependencyFunc computes a per-request value or side effect before
// validation runs. Whatever error it returns propagates unchanged; a
// dependency that wants to reject a request with the standard error shape
// must return a validation error itself.
type DependencyFunc func(ctx RequestContext) (any, error)

// Dependency is the non-wire field variant: instead of extracting a raw
// request value it invokes a callable. Dependencies run in declaration
// order before schema validation.
type Dependency struct {
	name   string
	fn     DependencyFunc
	cached bool
}

// NewDependency wraps fn as a route dependency. The name scopes the
// request-local cache entry when caching is enabled.
func NewDependency(name string, fn DependencyFunc) *Dependency {
	return &Dependency{name: name, fn: fn}
}

// Cached returns a copy that memoizes its result for the lifetime of one
// request context. The cache is keyed per dependency and never outlives or
// crosses the request.
func (d *Dependency) Cached() *Dependency {
	cp := *d
	cp.cached = true
	return &cp
}

// Name returns the dependency's cache-scoping name.
func (d *Dependency) Name() string {
	return d.name
}

type dependencyResult struct {
	value any
	err   error
}

// Value invokes the callable, consulting the request-scoped cache first
// when caching is enabled.
func (d *Dependency) Value(ctx RequestContext) (any, error) {
	if !d.cached {
		return d.fn(ctx)
	}
	key := "typedroutes:dependency:" + d.name
	store := ctx.Store()
	if cached, ok := store.Get(key).(dependencyResult); ok {
		return cached.value, cached.err
	}
	value, err := d.fn(ctx)
	store.Set(key, dependencyResult{value: value, err: err})
	return value, err
}
