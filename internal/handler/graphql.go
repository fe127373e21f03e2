package handler

import (
	"net/http"

	"github.com/deppfellow/wikitype-api/internal/dao"
	"github.com/deppfellow/wikitype-api/internal/graphql"
	"github.com/deppfellow/wikitype-api/internal/server"
	"github.com/deppfellow/wikitype-api/internal/validation"
	gql "github.com/graph-gophers/graphql-go"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

type GraphQLRequest struct {
	Query         string                 `json:"query" validate:"required"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func newGraphQLRequest() *GraphQLRequest {
	return &GraphQLRequest{}
}

func (r *GraphQLRequest) Validate() error {
	return validation.Struct(r)
}

type GraphQLHandler struct {
	Handler
	schema *gql.Schema
}

func NewGraphQLHandler(s *server.Server, pool dao.Pool) (*GraphQLHandler, error) {
	schema, err := graphql.NewSchema(pool)
	if err != nil {
		return nil, err
	}

	return &GraphQLHandler{
		Handler: NewHandler(s),
		schema:  schema,
	}, nil
}

// Execute runs one GraphQL document. Field errors travel inside the
// response body, so the status is always 200 once the request is valid.
func (h *GraphQLHandler) Execute(c echo.Context, req *GraphQLRequest) (*gql.Response, error) {
	return h.schema.Exec(c.Request().Context(), req.Query, req.OperationName, req.Variables), nil
}

func (h *GraphQLHandler) Serve() echo.HandlerFunc {
	return Handle[*GraphQLRequest, *gql.Response](h.Execute, newGraphQLRequest, graphQLResponseHandler{})
}

type graphQLResponseHandler struct{}

func (graphQLResponseHandler) Handle(c echo.Context, resp *gql.Response) error {
	return c.JSON(http.StatusOK, resp)
}

func (graphQLResponseHandler) Operation() string {
	return "graphql"
}

func (graphQLResponseHandler) Annotate(txn *newrelic.Transaction, resp *gql.Response) {
	txn.AddAttribute("graphql.error_count", len(resp.Errors))
	for _, err := range resp.Errors {
		if code, ok := err.Extensions["server_error"]; ok {
			txn.AddAttribute("graphql.server_error", code)
			break
		}
	}
}

// SchemaHandler serves the schema definition so clients can generate code
// against it.
type SchemaHandler struct {
	Handler
}

func NewSchemaHandler(s *server.Server) *SchemaHandler {
	return &SchemaHandler{Handler: NewHandler(s)}
}

func (h *SchemaHandler) ServeSDL(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.Blob(http.StatusOK, "application/graphql; charset=utf-8", []byte(graphql.SDL()))
}
