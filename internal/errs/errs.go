// Package errs defines the error shapes returned to HTTP clients outside of
// GraphQL responses: route errors, authentication failures, rate limiting and
// request validation.
package errs
