// Package middleware holds the echo middleware of the API: request ids,
// tracing, the request-scoped logger, bearer token authentication, rate
// limiting and the global error handler.
package middleware
