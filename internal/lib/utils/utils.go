package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// NewIdentifier returns a random (version 4) UUID in its canonical 36 character form.
//
// Uniqueness is statistical: collisions are not checked for, the primary key
// constraint is the only backstop.
func NewIdentifier() string {
	return uuid.NewString()
}

// Now returns the current instant in UTC, truncated to microseconds.
//
// Microseconds is the finest resolution every supported backend stores, so a
// value produced here reads back unchanged after a round trip.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// PrintJSON writes v as indented JSON followed by a newline.
func PrintJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("marshalling JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(out))
	return err
}
