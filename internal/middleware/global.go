package middleware

import (
	"net/http"

	"github.com/deppfellow/wikitype-api/internal/errs"
	"github.com/deppfellow/wikitype-api/internal/server"
	"github.com/deppfellow/wikitype-api/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// maxBodySize bounds a GraphQL request document plus its variables.
const maxBodySize = "1M"

type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			RequestIDHeader,
		},
		ExposeHeaders: []string{RequestIDHeader},
	})
}

// RequestLogger writes one line per request through the request scoped
// logger, so every line carries the request id and, once authenticated, the
// user id.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogError:     true,
		LogLatency:   true,
		LogMethod:    true,
		LogURIPath:   true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			status := v.Status
			if v.Error != nil {
				// the error handler runs after this, so the response
				// status is not final yet
				status = toHTTPError(v.Error).Status
			}

			log := GetLogger(c)
			levelFor(log, status).
				Err(v.Error).
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("user_agent", v.UserAgent).
				Msg("request")

			return nil
		},
	})
}

func levelFor(log *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return log.Error()
	case status >= http.StatusBadRequest:
		return log.Warn()
	default:
		return log.Info()
	}
}

// Recover turns a panic into a 500 response and logs the stack against the
// request.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisablePrintStack: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log := GetLogger(c)
			log.Error().Err(err).Bytes("stack", stack).Msg("recovered from panic")
			return errs.NewInternalServerError()
		},
	})
}

func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

func (global *GlobalMiddlewares) BodyLimit() echo.MiddlewareFunc {
	return middleware.BodyLimit(maxBodySize)
}

// GlobalErrorHandler renders every error that reaches echo as an
// errs.HTTPError body.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	httpErr := toHTTPError(err)

	log := GetLogger(c)
	event := log.Warn()
	if httpErr.Status >= http.StatusInternalServerError {
		event = log.Error().Stack()
	}
	event.
		Err(err).
		Int("status", httpErr.Status).
		Str("error_code", httpErr.Code).
		Msg(httpErr.Message)

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(httpErr.Status)
		return
	}

	_ = c.JSON(httpErr.Status, httpErr)
}

// toHTTPError maps any error to the shape written to clients. Echo errors
// keep their status; anything unrecognised goes through sqlerr, which
// yields a 500 for errors it does not know.
func toHTTPError(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if !errors.As(err, &echoErr) {
		if errors.As(sqlerr.HandleError(err), &httpErr) {
			return httpErr
		}
		return errs.NewInternalServerError()
	}

	if echoErr.Code == http.StatusNotFound {
		return errs.NewNotFoundError("Route not found", false, nil)
	}

	message, ok := echoErr.Message.(string)
	if !ok {
		message = http.StatusText(echoErr.Code)
	}

	return &errs.HTTPError{
		Code:    errs.CodeFor(echoErr.Code),
		Message: message,
		Status:  echoErr.Code,
	}
}
