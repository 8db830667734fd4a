package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	a := New()
	b := New()
	assert.Len(t, a, 26)
	assert.Less(t, a, b)
}

func TestAtUsesGivenTime(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	s := At(ts)

	parsed, err := ulid.ParseStrict(s)
	require.NoError(t, err)
	assert.Equal(t, ts.UnixMilli(), int64(parsed.Time()))
}

func TestClientOrderID(t *testing.T) {
	t.Parallel()

	s := ClientOrderID()
	assert.True(t, IsClientOrderID(s))
	assert.LessOrEqual(t, len(s), 36)

	assert.False(t, IsClientOrderID("web_123"))
	assert.False(t, IsClientOrderID(ClientOrderPrefix+"not-a-ulid"))
}
