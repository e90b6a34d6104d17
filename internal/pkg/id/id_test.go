package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAt_EmbedsTimestamp(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	parsed, err := ulid.Parse(At(ts))
	require.NoError(t, err)
	assert.Equal(t, ts.UnixMilli(), ulid.Time(parsed.Time()).UnixMilli())
}

func TestAt_SortsByTime(t *testing.T) {
	earlier := At(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	later := At(time.Date(2025, 3, 1, 12, 0, 1, 0, time.UTC))
	assert.Less(t, earlier, later)
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		s := New()
		assert.Len(t, s, 26)
		seen[s] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestAt_SameMillisecondIncreases(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prev := At(ts)
	for range 100 {
		next := At(ts)
		require.Less(t, prev, next)
		prev = next
	}
}
