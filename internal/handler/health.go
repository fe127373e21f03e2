package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/wikitype-api/internal/config"
	"github.com/deppfellow/wikitype-api/internal/middleware"
	"github.com/deppfellow/wikitype-api/internal/server"
	"github.com/labstack/echo/v4"
)

const defaultHealthCheckTimeout = 5 * time.Second

type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type healthCheck struct {
	name  string
	probe func(ctx context.Context) error
}

// checks lists the enabled probes. Redis is probed only when configured.
func (h *HealthHandler) checks() []healthCheck {
	cfg := config.HealthChecksConfig{Enabled: true, Checks: []string{"database", "redis"}}
	if h.server.Config.Observability != nil {
		cfg = h.server.Config.Observability.HealthChecks
	}

	var checks []healthCheck
	if cfg.Has("database") {
		checks = append(checks, healthCheck{name: "database", probe: h.server.DB.Ping})
	}
	if cfg.Has("redis") && h.server.Redis != nil {
		checks = append(checks, healthCheck{name: "redis", probe: func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		}})
	}
	return checks
}

func (h *HealthHandler) timeout() time.Duration {
	if obs := h.server.Config.Observability; obs != nil && obs.HealthChecks.Timeout > 0 {
		return obs.HealthChecks.Timeout
	}
	return defaultHealthCheckTimeout
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout())
	defer cancel()

	checks := make(map[string]interface{})
	healthy := true

	for _, check := range h.checks() {
		checkStart := time.Now()
		err := check.probe(ctx)
		elapsed := time.Since(checkStart)

		if err != nil {
			healthy = false
			checks[check.name] = map[string]interface{}{
				"status":        "unhealthy",
				"response_time": elapsed.String(),
				"error":         err.Error(),
			}

			logger.Error().
				Err(err).
				Str("check", check.name).
				Dur("response_time", elapsed).
				Msg("health check failed")

			h.recordFailure(map[string]interface{}{
				"check_type":       check.name,
				"operation":        "health_check",
				"error_type":       check.name + "_unhealthy",
				"response_time_ms": elapsed.Milliseconds(),
				"error_message":    err.Error(),
			})
			continue
		}

		checks[check.name] = map[string]interface{}{
			"status":        "healthy",
			"response_time": elapsed.String(),
		}
	}

	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"driver":      h.server.DB.Driver,
		"checks":      checks,
	}

	if !healthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("service unhealthy")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordFailure(attrs map[string]interface{}) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", attrs)
	}
}
