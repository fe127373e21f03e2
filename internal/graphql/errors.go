package graphql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/wikitype-api/internal/dao"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	msgNotFound = "Resource not found"
	msgInternal = "An internal server error occurred"
)

var errTopicTooLong = fmt.Errorf("topic must be at most %d characters", maxTopicLength)

// Error is a GraphQL error carrying extensions. graphql-go copies the
// extensions into the response for any resolver error that has them.
type Error struct {
	Message    string
	extensions map[string]interface{}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Extensions() map[string]interface{} {
	return e.extensions
}

func notFound() *Error {
	return &Error{
		Message:    msgNotFound,
		extensions: map[string]interface{}{"client_error": "not_found"},
	}
}

func badRequest(err error) *Error {
	return &Error{
		Message:    describe(err),
		extensions: map[string]interface{}{"client_error": "bad_request"},
	}
}

func internal() *Error {
	return &Error{
		Message:    msgInternal,
		extensions: map[string]interface{}{"server_error": "internal_server_error"},
	}
}

// resolverError maps a dao error onto what the client may see. Server
// errors are logged in full and returned opaque.
func resolverError(ctx context.Context, err error) error {
	switch dao.KindOf(err) {
	case dao.KindNotFound:
		return notFound()
	case dao.KindInvalidQuery, dao.KindSerialization, dao.KindDeserialization:
		return badRequest(err)
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("exercise operation failed")
		return internal()
	}
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}
