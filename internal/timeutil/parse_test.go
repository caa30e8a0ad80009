package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampFormats(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-14T10:00:00Z", time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)},
		{"2024-03-14T10:00:00+02:00", time.Date(2024, 3, 14, 10, 0, 0, 0, time.FixedZone("", 2*3600))},
		{"2024-03-14T10:00:00.500Z", time.Date(2024, 3, 14, 10, 0, 0, 500_000_000, time.UTC)},
		// No offset: assumed UTC.
		{"2024-03-14T10:00:00", time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)},
		{"2024-03-14T10:00:00.250", time.Date(2024, 3, 14, 10, 0, 0, 250_000_000, time.UTC)},
		{"2024-03-14 10:00:00", time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)},
		{"2024-03-14 10:00:00.125", time.Date(2024, 3, 14, 10, 0, 0, 125_000_000, time.UTC)},
	}
	for _, tc := range tests {
		got, ok := ParseTimestamp(tc.in)
		require.True(t, ok, tc.in)
		assert.True(t, got.Equal(tc.want), "%s: got %s want %s", tc.in, got, tc.want)
	}
}

func TestParseTimestampUnparseable(t *testing.T) {
	for _, in := range []string{"", "garbage", "14/03/2024", "2024-03-14T25:00:00Z"} {
		_, ok := ParseTimestamp(in)
		assert.False(t, ok, in)
	}
}

func TestParseTimestampIdempotent(t *testing.T) {
	first, ok1 := ParseTimestamp("2024-03-14T10:00:00Z")
	second, ok2 := ParseTimestamp("2024-03-14T10:00:00Z")
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first, second)
}
