package dao

import (
	"errors"
	"fmt"
)

// Kind classifies a data access failure.
type Kind uint8

const (
	KindServer Kind = iota
	KindNotFound
	KindInvalidQuery
	KindDeserialization
	KindSerialization
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidQuery:
		return "invalid query"
	case KindDeserialization:
		return "deserialization error"
	case KindSerialization:
		return "serialization error"
	default:
		return "server error"
	}
}

// Error is the only error type returned across the DAO boundary.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidQuery    = &Error{Kind: KindInvalidQuery}
	ErrDeserialization = &Error{Kind: KindDeserialization}
	ErrSerialization   = &Error{Kind: KindSerialization}
	ErrServer          = &Error{Kind: KindServer}
)

func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf reports the kind of err. Errors that did not come from a backend
// are server errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
