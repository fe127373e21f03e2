package handler

import (
	"github.com/deppfellow/wikitype-api/internal/server"
	"github.com/deppfellow/wikitype-api/internal/service"
)

type Handlers struct {
	Health  *HealthHandler
	GraphQL *GraphQLHandler
	Schema  *SchemaHandler
}

func NewHandlers(s *server.Server, services *service.Services) (*Handlers, error) {
	graphQL, err := NewGraphQLHandler(s, services.Exercises)
	if err != nil {
		return nil, err
	}

	return &Handlers{
		Health:  NewHealthHandler(s),
		GraphQL: graphQL,
		Schema:  NewSchemaHandler(s),
	}, nil
}
