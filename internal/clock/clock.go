package clock

import (
	"sync"
	"time"
)

const (
	// DisplayLayout is the day-first layout shown on panels and reports.
	DisplayLayout = "02/01/2006 15:04:05"
	// SortableLayout is the machine-sortable layout used in API payloads.
	SortableLayout = time.RFC3339
)

// Clock abstracts the current time so that time-dependent components can be tested.
type Clock interface {
	Now() time.Time
}

// Real reads the system wall clock.
type Real struct{}

// Now returns the current local time.
func (Real) Now() time.Time {
	return time.Now()
}

// Manual is a Clock that only moves when told to.
type Manual struct {
	// now is the time returned by Now.
	now time.Time
	// mu protects now.
	mu sync.Mutex
}

// NewManual creates a manual clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now: start,
	}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = m.now.Add(d)
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = t
}

// Display formats t for humans. The zero time renders as an empty string.
func Display(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(DisplayLayout)
}

// Sortable formats t in RFC 3339. The zero time renders as an empty string.
func Sortable(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(SortableLayout)
}
