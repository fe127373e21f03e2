package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentifier(t *testing.T) {
	id := NewIdentifier()
	require.Len(t, id, 36)

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())

	assert.NotEqual(t, id, NewIdentifier())
}

func TestNow(t *testing.T) {
	now := Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Microsecond))
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]string{"title": "Albatross"}))
	assert.Equal(t, "{\n\t\"title\": \"Albatross\"\n}\n", buf.String())
}
