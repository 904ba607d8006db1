package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFormats checks display and sortable layouts, including the zero time.
func TestFormats(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, time.March, 7, 9, 5, 3, 0, time.UTC)

	require.Equal(t, "07/03/2024 09:05:03", Display(ts))
	require.Equal(t, "2024-03-07T09:05:03Z", Sortable(ts))
	require.Empty(t, Display(time.Time{}))
	require.Empty(t, Sortable(time.Time{}))
}

// TestManual verifies that the manual clock only moves when advanced or set.
func TestManual(t *testing.T) {
	t.Parallel()

	start := time.Unix(1000, 0)
	m := NewManual(start)

	require.Equal(t, start, m.Now())

	m.Advance(time.Minute)
	require.Equal(t, start.Add(time.Minute), m.Now())

	m.Set(start)
	require.Equal(t, start, m.Now())
}
