package router

import (
	"github.com/deppfellow/wikitype-api/internal/handler"
	"github.com/labstack/echo/v4"
)

func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.GET("/schema.graphql", h.Schema.ServeSDL)
}
