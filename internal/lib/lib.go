// Package lib holds modules that do not fit strictly into other layers.
//
// It contains shared utilities and the OpenID Connect token verifier.
package lib
