// Package router assembles the echo instance: global middleware, the
// GraphQL endpoint and the system routes.
package router

import (
	"github.com/deppfellow/wikitype-api/internal/handler"
	"github.com/deppfellow/wikitype-api/internal/middleware"
	"github.com/deppfellow/wikitype-api/internal/server"
	"github.com/deppfellow/wikitype-api/internal/service"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers, services *service.Services) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s, services)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.BodyLimit(),
	)

	registerSystemRoutes(router, h)
	registerGraphQLRoutes(router, h, middlewares)

	return router
}

func registerGraphQLRoutes(r *echo.Echo, h *handler.Handlers, m *middleware.Middlewares) {
	r.POST("/graphql", h.GraphQL.Serve(),
		m.RateLimit.Limit("/graphql"),
		m.Auth.Authenticate,
	)
}
