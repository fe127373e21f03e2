package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/deppfellow/wikitype-api/internal/config"
	"github.com/deppfellow/wikitype-api/internal/database"
	"github.com/deppfellow/wikitype-api/internal/handler"
	"github.com/deppfellow/wikitype-api/internal/lib/oidc"
	"github.com/deppfellow/wikitype-api/internal/repository"
	"github.com/deppfellow/wikitype-api/internal/server"
	"github.com/deppfellow/wikitype-api/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenTable map[string]*oidc.Claims

func (tt tokenTable) Verify(_ context.Context, raw string) (*oidc.Claims, error) {
	if claims, ok := tt[raw]; ok {
		return claims, nil
	}
	return nil, errors.New("unknown token")
}

func newTestRouter(t *testing.T, required bool) *echo.Echo {
	t.Helper()

	logger := zerolog.Nop()
	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Server:  config.ServerConfig{Port: "0", CORSAllowedOrigins: []string{"*"}},
		Database: config.DatabaseConfig{
			Driver:         config.DriverSQLite,
			Path:           filepath.Join(t.TempDir(), "wikitype.db"),
			MaxOpenConns:   1,
			MaxIdleConns:   1,
			AcquireTimeout: 10,
		},
		Observability: config.DefaultObservabilityConfig(),
	}

	require.NoError(t, database.Migrate(context.Background(), &logger, cfg))
	db, err := database.New(cfg, &logger, nil)
	require.NoError(t, err)

	s := &server.Server{Config: cfg, Logger: &logger, DB: db}
	t.Cleanup(func() { _ = s.Close() })

	repos := repository.NewRepositories(s)
	services := &service.Services{
		Auth: service.NewAuthServiceWithVerifier(tokenTable{
			"good": {Subject: "user-1"},
		}, required),
		Exercises: repos.Exercises,
	}

	h, err := handler.NewHandlers(s, services)
	require.NoError(t, err)

	return NewRouter(s, h, services)
}

func post(e *echo.Echo, token, query string, vars map[string]interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const createMutation = `mutation($input: NewExercise!) { createExercise(input: $input) { id title } }`

func createVars(title string) map[string]interface{} {
	return map[string]interface{}{"input": map[string]interface{}{"title": title, "body": "text"}}
}

func TestGraphQLRequiresToken(t *testing.T) {
	e := newTestRouter(t, true)

	assert.Equal(t, http.StatusUnauthorized, post(e, "", createMutation, createVars("a")).Code)
	assert.Equal(t, http.StatusUnauthorized, post(e, "forged", createMutation, createVars("a")).Code)

	rec := post(e, "good", createMutation, createVars("a"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGraphQLOptionalToken(t *testing.T) {
	e := newTestRouter(t, false)

	assert.Equal(t, http.StatusOK, post(e, "", createMutation, createVars("a")).Code)
	assert.Equal(t, http.StatusUnauthorized, post(e, "forged", createMutation, createVars("a")).Code)
}

func TestSystemRoutesAreOpen(t *testing.T) {
	e := newTestRouter(t, true)

	for _, path := range []string{"/status", "/schema.graphql"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestConcurrentRequests(t *testing.T) {
	e := newTestRouter(t, false)

	const workers = 10
	ids := make(chan string, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			rec := post(e, "", createMutation, createVars("parallel"))
			if !assert.Equal(t, http.StatusOK, rec.Code) {
				return
			}

			var resp struct {
				Data struct {
					CreateExercise struct{ ID string } `json:"createExercise"`
				} `json:"data"`
			}
			if assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)) {
				ids <- resp.Data.CreateExercise.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]struct{}{}
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers)
}
