package field

import (
	"io"
	"mime"

	gojson "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

// Store is the per-request key/value cache dependencies may memoize into.
// Its lifetime is the single in-flight request; it is never shared across
// requests.
type Store interface {
	Get(key string) any
	Set(key string, value any)
}

// RequestContext exposes the raw request surfaces a Field extracts from.
// It replaces the original design's ambient current-request global with an
// explicit parameter threaded through Value.
type RequestContext interface {
	// PathParam returns the named route parameter and whether it exists.
	PathParam(name string) (string, bool)
	// QueryValues returns every occurrence of a query key, nil when absent.
	QueryValues(name string) []string
	// HeaderValues returns every occurrence of a header, nil when absent.
	HeaderValues(name string) []string
	// CookieValues returns every cookie with the given name, nil when absent.
	CookieValues(name string) []string
	// Body returns the parsed JSON request body, false when there is none.
	Body() (gojson.RawMessage, bool)
	// BodyMember returns a top-level member of a JSON object body.
	BodyMember(name string) (gojson.RawMessage, bool)
	// Store returns the request-scoped cache.
	Store() Store
}

// echoContext adapts an echo.Context to the RequestContext interface.
// The JSON body is read and decoded at most once per request.
type echoContext struct {
	c           echo.Context
	bodyRead    bool
	body        gojson.RawMessage
	members     map[string]gojson.RawMessage
	bodyPresent bool
}

// EchoContext wraps a live Echo context for raw-value extraction.
func EchoContext(c echo.Context) RequestContext {
	return &echoContext{c: c}
}

func (ec *echoContext) PathParam(name string) (string, bool) {
	for _, pname := range ec.c.ParamNames() {
		if pname == name {
			return ec.c.Param(name), true
		}
	}
	return "", false
}

func (ec *echoContext) QueryValues(name string) []string {
	return ec.c.QueryParams()[name]
}

func (ec *echoContext) HeaderValues(name string) []string {
	return ec.c.Request().Header.Values(name)
}

func (ec *echoContext) CookieValues(name string) []string {
	var values []string
	for _, cookie := range ec.c.Cookies() {
		if cookie.Name == name {
			values = append(values, cookie.Value)
		}
	}
	return values
}

func (ec *echoContext) Body() (gojson.RawMessage, bool) {
	ec.readBody()
	return ec.body, ec.bodyPresent
}

func (ec *echoContext) BodyMember(name string) (gojson.RawMessage, bool) {
	ec.readBody()
	raw, ok := ec.members[name]
	return raw, ok
}

func (ec *echoContext) Store() Store {
	return echoStore{c: ec.c}
}

// readBody buffers and decodes the JSON body once. A missing, non-JSON or
// malformed body degrades to absent values rather than an extraction error;
// required checks fire downstream instead.
func (ec *echoContext) readBody() {
	if ec.bodyRead {
		return
	}
	ec.bodyRead = true

	req := ec.c.Request()
	if req == nil || req.Body == nil {
		return
	}
	if ct := req.Header.Get(echo.HeaderContentType); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); mt != echo.MIMEApplicationJSON && !hasJSONSuffix(mt) {
			return
		}
	}
	data, err := io.ReadAll(req.Body)
	if err != nil || len(data) == 0 {
		return
	}
	var raw gojson.RawMessage
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return
	}
	ec.body = raw
	ec.bodyPresent = true

	var members map[string]gojson.RawMessage
	if err := gojson.Unmarshal(raw, &members); err == nil {
		ec.members = members
	}
}

func hasJSONSuffix(mediaType string) bool {
	const suffix = "+json"
	return len(mediaType) > len(suffix) && mediaType[len(mediaType)-len(suffix):] == suffix
}

// echoStore exposes Echo's per-request context map as a Store.
type echoStore struct {
	c echo.Context
}

func (s echoStore) Get(key string) any        { return s.c.Get(key) }
func (s echoStore) Set(key string, value any) { s.c.Set(key, value) }

var _ RequestContext = (*echoContext)(nil)
