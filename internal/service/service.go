// Package service sits between the HTTP layer and storage. It owns the
// token verifier and exposes the exercise pool the GraphQL resolvers run on.
package service
