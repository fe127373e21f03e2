package middleware

import (
	"strings"

	"github.com/deppfellow/wikitype-api/internal/errs"
	"github.com/deppfellow/wikitype-api/internal/lib/oidc"
	"github.com/deppfellow/wikitype-api/internal/server"
	"github.com/deppfellow/wikitype-api/internal/service"
	"github.com/labstack/echo/v4"
)

type AuthMiddleware struct {
	server *server.Server
	auth   *service.AuthService
}

func NewAuthMiddleware(s *server.Server, auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
		auth:   auth,
	}
}

// Authenticate verifies the bearer token when one is sent. A request without
// a token passes through unless authentication is required; a token that
// fails verification is always rejected.
func (a *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.auth.Enabled() {
			return next(c)
		}

		logger := GetLogger(c)

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			if a.auth.Required() {
				logger.Warn().Msg("request without bearer token rejected")
				return errs.NewUnauthorizedError("Unauthorized", false)
			}
			return next(c)
		}

		token, ok := bearerToken(header)
		if !ok {
			logger.Warn().Msg("malformed authorization header")
			return errs.NewUnauthorizedError("Unauthorized", false)
		}

		claims, err := a.auth.Verify(c.Request().Context(), token)
		if err != nil {
			logger.Warn().Err(err).Msg("bearer token verification failed")
			return errs.NewUnauthorizedError("Unauthorized", false)
		}

		c.Set(UserIDKey, claims.Subject)

		authLogger := logger.With().Str("user_id", claims.Subject).Logger()
		setLogger(c, authLogger)
		c.SetRequest(c.Request().WithContext(oidc.WithClaims(c.Request().Context(), claims)))

		authLogger.Debug().Msg("user authenticated")
		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
