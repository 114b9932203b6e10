package ids

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestNewAtIsMonotonicWithinMillisecond(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	prev := NewAt(at)
	for i := 0; i < 100; i++ {
		next := NewAt(at)
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestNewAtEncodesTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := ulid.Parse(NewAt(at))
	require.NoError(t, err)
	require.Equal(t, ulid.Timestamp(at), id.Time())
}
