// Package graphql exposes exercises through a GraphQL schema. Resolvers
// convert client input into model requests, run them through a dao.Pool and
// translate dao errors into GraphQL errors with extensions.
package graphql

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/deppfellow/wikitype-api/internal/dao"
	gql "github.com/graph-gophers/graphql-go"
	"github.com/rs/zerolog"
)

const APIVersion = "1.0"

const (
	maxDepth       = 8
	maxParallelism = 10
)

//go:embed schema.graphql
var sdl string

// SDL returns the schema definition served to clients.
func SDL() string {
	return sdl
}

// NewSchema parses the schema and binds it to a resolver over pool.
func NewSchema(pool dao.Pool) (*gql.Schema, error) {
	schema, err := gql.ParseSchema(sdl, NewResolver(pool),
		gql.MaxDepth(maxDepth),
		gql.MaxParallelism(maxParallelism),
		gql.Logger(panicLogger{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graphql schema: %w", err)
	}
	return schema, nil
}

// panicLogger reports resolver panics through the request logger.
type panicLogger struct{}

func (panicLogger) LogPanic(ctx context.Context, value interface{}) {
	zerolog.Ctx(ctx).Error().
		Interface("panic", value).
		Msg("graphql resolver panicked")
}
