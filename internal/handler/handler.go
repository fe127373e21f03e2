// Package handler turns HTTP requests into calls on the service layer. The
// typed pipeline in base.go binds, validates, traces and logs every request
// the same way.
package handler
