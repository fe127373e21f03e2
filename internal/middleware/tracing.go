package middleware

import (
	"github.com/deppfellow/wikitype-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{
		server: s,
		nrApp:  nrApp,
	}
}

// NewRelicMiddleware starts a transaction per request. Without a New Relic
// application it passes requests straight through.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing annotates the request's transaction. Attributes known only
// after the handler ran (user, status) are added on the way out.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			addAttributes(txn, map[string]string{
				"http.real_ip":    c.RealIP(),
				"http.user_agent": c.Request().UserAgent(),
				"request.id":      GetRequestID(c),
				"db.driver":       tm.server.DB.Driver,
			})

			err := next(c)
			if err != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}

			addAttributes(txn, map[string]string{"user.id": GetUserID(c)})
			txn.AddAttribute("http.status_code", c.Response().Status)

			return err
		}
	}
}

func addAttributes(txn *newrelic.Transaction, attrs map[string]string) {
	for key, value := range attrs {
		if value != "" {
			txn.AddAttribute(key, value)
		}
	}
}
