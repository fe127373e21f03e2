package handler

import (
	"time"

	"github.com/deppfellow/wikitype-api/internal/middleware"
	"github.com/deppfellow/wikitype-api/internal/server"
	"github.com/deppfellow/wikitype-api/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// ResponseHandler writes a handler result and describes it to tracing.
type ResponseHandler[Res any] interface {
	Handle(c echo.Context, result Res) error
	Operation() string
	Annotate(txn *newrelic.Transaction, result Res)
}

// phase records how long one step of a request took, both on the
// transaction and in the completion log line.
type phase struct {
	name  string
	start time.Time
	txn   *newrelic.Transaction
}

func startPhase(txn *newrelic.Transaction, name string) phase {
	return phase{name: name, start: time.Now(), txn: txn}
}

func (p phase) end(err error) time.Duration {
	elapsed := time.Since(p.start)
	if p.txn == nil {
		return elapsed
	}

	status := "success"
	if err != nil {
		status = "failed"
		p.txn.NoticeError(nrpkgerrors.Wrap(err))
	}
	p.txn.AddAttribute(p.name+".status", status)
	p.txn.AddAttribute(p.name+".duration_ms", elapsed.Milliseconds())
	return elapsed
}

// Handle adapts a typed handler to echo: bind and validate a fresh request,
// run the handler, then let responseHandler write the result. newReq is
// called once per request so concurrent requests never share a payload.
func Handle[Req validation.Validatable, Res any](
	handler HandlerFunc[Req, Res],
	newReq func() Req,
	responseHandler ResponseHandler[Res],
) echo.HandlerFunc {
	return func(c echo.Context) error {
		txn := newrelic.FromContext(c.Request().Context())
		if txn != nil {
			txn.AddAttribute("handler.name", c.Path())
		}

		log := middleware.GetLogger(c).With().
			Str("operation", responseHandler.Operation()).
			Logger()

		req := newReq()

		validating := startPhase(txn, "validation")
		err := validation.BindAndValidate(c, req)
		validationTook := validating.end(err)
		if err != nil {
			log.Warn().Err(err).Dur("validation_duration", validationTook).Msg("request validation failed")
			return err
		}

		running := startPhase(txn, "handler")
		result, err := handler(c, req)
		handlerTook := running.end(err)
		if err != nil {
			log.Error().Err(err).Dur("handler_duration", handlerTook).Msg("handler execution failed")
			return err
		}

		if txn != nil {
			responseHandler.Annotate(txn, result)
		}
		logCompleted(&log, validationTook, handlerTook)

		return responseHandler.Handle(c, result)
	}
}

func logCompleted(log *zerolog.Logger, validationTook, handlerTook time.Duration) {
	log.Debug().
		Dur("validation_duration", validationTook).
		Dur("handler_duration", handlerTook).
		Msg("request completed")
}
