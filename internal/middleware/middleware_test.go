package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/wikitype-api/internal/config"
	"github.com/deppfellow/wikitype-api/internal/dao"
	"github.com/deppfellow/wikitype-api/internal/database"
	"github.com/deppfellow/wikitype-api/internal/errs"
	"github.com/deppfellow/wikitype-api/internal/lib/oidc"
	"github.com/deppfellow/wikitype-api/internal/server"
	"github.com/deppfellow/wikitype-api/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	claims *oidc.Claims
	err    error
	seen   string
}

func (s *stubVerifier) Verify(_ context.Context, raw string) (*oidc.Claims, error) {
	s.seen = raw
	return s.claims, s.err
}

func testServer(t *testing.T, logs *bytes.Buffer) *server.Server {
	t.Helper()

	logger := zerolog.New(logs)
	return &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Server: config.ServerConfig{
				Port:               "0",
				CORSAllowedOrigins: []string{"*"},
			},
		},
		Logger: &logger,
		DB:     &database.Database{Driver: config.DriverSQLite},
	}
}

func newEcho(s *server.Server) *echo.Echo {
	e := echo.New()
	global := NewGlobalMiddlewares(s)
	e.HTTPErrorHandler = global.GlobalErrorHandler
	e.Use(RequestID(), NewContextEnhancer(s).EnhanceContext())
	return e
}

func decodeHTTPError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()
	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticate(t *testing.T) {
	valid := &oidc.Claims{Subject: "user-123", Email: "typist@example.com"}

	tests := []struct {
		name       string
		auth       *service.AuthService
		header     string
		wantStatus int
		wantUser   string
	}{
		{
			name:       "disabled ignores header",
			auth:       &service.AuthService{},
			header:     "Bearer whatever",
			wantStatus: http.StatusOK,
		},
		{
			name:       "optional without token",
			auth:       service.NewAuthServiceWithVerifier(&stubVerifier{claims: valid}, false),
			wantStatus: http.StatusOK,
		},
		{
			name:       "required without token",
			auth:       service.NewAuthServiceWithVerifier(&stubVerifier{claims: valid}, true),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			auth:       service.NewAuthServiceWithVerifier(&stubVerifier{claims: valid}, false),
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			auth:       service.NewAuthServiceWithVerifier(&stubVerifier{err: errors.New("token is expired")}, false),
			header:     "Bearer expired",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token",
			auth:       service.NewAuthServiceWithVerifier(&stubVerifier{claims: valid}, true),
			header:     "bearer good-token",
			wantStatus: http.StatusOK,
			wantUser:   "user-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			s := testServer(t, &logs)
			e := newEcho(s)

			var gotUser string
			var gotClaims *oidc.Claims
			e.POST("/graphql", func(c echo.Context) error {
				gotUser = GetUserID(c)
				gotClaims, _ = oidc.ClaimsFromContext(c.Request().Context())
				zerolog.Ctx(c.Request().Context()).Info().Msg("inside handler")
				return c.NoContent(http.StatusOK)
			}, NewAuthMiddleware(s, tt.auth).Authenticate)

			req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				body := decodeHTTPError(t, rec)
				assert.Equal(t, "UNAUTHORIZED", body.Code)
				return
			}

			assert.Equal(t, tt.wantUser, gotUser)
			if tt.wantUser != "" {
				require.NotNil(t, gotClaims)
				assert.Equal(t, "typist@example.com", gotClaims.Email)

				// the request logger now carries the user
				var line map[string]interface{}
				for _, raw := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
					require.NoError(t, json.Unmarshal([]byte(raw), &line))
					if line["message"] == "inside handler" {
						break
					}
				}
				assert.Equal(t, "user-123", line["user_id"])
				assert.NotEmpty(t, line["request_id"])
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	for _, header := range []string{"Bearer", "Bearer    ", "Token abc", "abc"} {
		_, ok := bearerToken(header)
		assert.False(t, ok, header)
	}
}

func TestGlobalErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found dao error", dao.E(dao.KindNotFound, "find_by_id", nil), http.StatusNotFound, "NOT_FOUND"},
		{"invalid query dao error", dao.E(dao.KindInvalidQuery, "update", errors.New("bad")), http.StatusBadRequest, "BAD_REQUEST"},
		{"server dao error", dao.E(dao.KindServer, "acquire", errors.New("pool closed")), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"http error", errs.NewTooManyRequestsError(), http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			s := testServer(t, &logs)
			e := newEcho(s)
			e.GET("/fail", func(echo.Context) error { return tt.err })

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeHTTPError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantStatus, body.Status)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	var logs bytes.Buffer
	e := newEcho(testServer(t, &logs))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decodeHTTPError(t, rec).Message)
}

func TestRequestID(t *testing.T) {
	var logs bytes.Buffer
	e := newEcho(testServer(t, &logs))
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", rec.Body.String())
	assert.Equal(t, "caller-id", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("a", maxRequestIDLength+1))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Len(t, rec.Body.String(), 36)
}

func TestRateLimit(t *testing.T) {
	var logs bytes.Buffer
	s := testServer(t, &logs)
	s.Config.Server.RateLimit = 1
	e := newEcho(s)
	e.POST("/graphql", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewRateLimitMiddleware(s).Limit("/graphql"))

	send := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", decodeHTTPError(t, rec).Code)
	assert.Contains(t, logs.String(), "rate limit exceeded")
}

func TestRateLimitDisabled(t *testing.T) {
	var logs bytes.Buffer
	s := testServer(t, &logs)
	e := newEcho(s)
	e.POST("/graphql", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewRateLimitMiddleware(s).Limit("/graphql"))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestValidRequestID(t *testing.T) {
	for _, id := range []string{"abc-123", "trace_01.span:2", "f47ac10b-58cc-4372-a567-0e02b2c3d479"} {
		assert.True(t, validRequestID(id), id)
	}
	for _, id := range []string{"", "with space", "line\nbreak", "<script>", strings.Repeat("a", maxRequestIDLength+1)} {
		assert.False(t, validRequestID(id), id)
	}
}
