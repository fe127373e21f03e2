// Package validation binds request bodies and turns validator failures into
// errs.HTTPError values with per-field messages.
package validation
