package alert

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newRecord builds a record for store tests.
func newRecord(teacher string) *Record {
	return &Record{
		TenantID:  "default",
		Teacher:   teacher,
		Room:      "12B",
		CreatedAt: time.Unix(100, 0),
	}
}

// TestStore_InsertOrderAndIDs verifies most-recent-first ordering and id assignment.
func TestStore_InsertOrderAndIDs(t *testing.T) {
	t.Parallel()

	s := NewStore()

	first := s.Insert(newRecord("Ana"))
	second := s.Insert(newRecord("Bruno"))

	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(2), second.ID)
	require.Equal(t, StatusActive, second.Status)

	snap := s.Snapshot(0)
	require.Len(t, snap, 2)
	require.Equal(t, "Bruno", snap[0].Teacher)
	require.Equal(t, "Ana", snap[1].Teacher)
}

// TestStore_InsertCopies ensures neither the input nor the result alias the stored record.
func TestStore_InsertCopies(t *testing.T) {
	t.Parallel()

	s := NewStore()
	in := newRecord("Ana")

	out := s.Insert(in)
	out.Teacher = "changed"
	in.Teacher = "changed too"

	require.Equal(t, "Ana", s.Snapshot(1)[0].Teacher)
	require.Zero(t, in.ID)
}

// TestStore_Resolve covers resolving the first active record and resolving everything.
func TestStore_Resolve(t *testing.T) {
	t.Parallel()

	s := NewStore()
	require.False(t, s.MarkFirstActiveResolved())

	s.Insert(newRecord("Ana"))
	s.Insert(newRecord("Bruno"))
	s.Insert(newRecord("Carla"))
	require.Equal(t, 3, s.CountActive())

	require.True(t, s.MarkFirstActiveResolved())
	snap := s.Snapshot(0)
	require.Equal(t, StatusResolved, snap[0].Status)
	require.Equal(t, StatusActive, snap[1].Status)
	require.Equal(t, 2, s.CountActive())

	require.Equal(t, 2, s.MarkAllResolved())
	require.Zero(t, s.CountActive())
	require.False(t, s.MarkFirstActiveResolved())
	require.Equal(t, 3, s.Len())
}

// TestStore_ClearKeepsIDCounter checks that ids are not reused after Clear.
func TestStore_ClearKeepsIDCounter(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Insert(newRecord("Ana"))
	s.Insert(newRecord("Bruno"))

	s.Clear()
	require.Zero(t, s.Len())
	require.Empty(t, s.Snapshot(0))

	rec := s.Insert(newRecord("Carla"))
	require.Equal(t, int64(3), rec.ID)
}

// TestStore_SnapshotLimit verifies the limit keeps the most recent records.
func TestStore_SnapshotLimit(t *testing.T) {
	t.Parallel()

	s := NewStore()
	for range 5 {
		s.Insert(newRecord("Ana"))
	}

	snap := s.Snapshot(2)
	require.Len(t, snap, 2)
	require.Equal(t, int64(5), snap[0].ID)
	require.Equal(t, int64(4), snap[1].ID)

	// Snapshot is a copy.
	snap[0].Status = StatusResolved
	require.Equal(t, 5, s.CountActive())

	require.Len(t, s.Snapshot(50), 5)
}

// TestTruncate covers trimming and rune-aware truncation.
func TestTruncate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc", Truncate("  abc  ", 10))
	require.Equal(t, "ab", Truncate("abc", 2))
	require.Equal(t, "çã", Truncate("çãõ", 2))
	require.Len(t, []rune(Truncate(strings.Repeat("é", 300), MaxDescriptionLength)), MaxDescriptionLength)
}

// TestRecordClone verifies that Clone copies and handles nil safely.
func TestRecordClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Record)(nil).Clone())

	a := newRecord("Ana")
	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)
}
