package errs

import (
	"net/http"
	"strings"
)

// FieldError is a validation failure on a single request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is the JSON body written by the global error handler for
// anything that is not a GraphQL execution result.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`

	// Override marks Message as safe to show to end users verbatim.
	Override bool         `json:"override"`
	Errors   []FieldError `json:"errors,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError, so errors.Is(err, &HTTPError{}) reports whether
// err already has a client facing shape.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// CodeFor returns the machine readable code for an HTTP status,
// e.g. 404 -> "NOT_FOUND".
func CodeFor(status int) string {
	return MakeUpperCaseWithUnderscores(http.StatusText(status))
}

// MakeUpperCaseWithUnderscores turns "Not Found" into "NOT_FOUND".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
