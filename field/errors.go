package field

import "fmt"

// InvalidParameterError reports a mistake in a route's parameter
// declarations: an unsupported style, embed on a non-body field, duplicate
// wire names, and the like. It is raised at registration time and must stop
// startup; it never surfaces during request handling.
type InvalidParameterError struct {
	msg string
}

// NewInvalidParameterError creates a definition-time parameter error.
func NewInvalidParameterError(format string, args ...any) *InvalidParameterError {
	return &InvalidParameterError{msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *InvalidParameterError) Error() string {
	return e.msg
}
