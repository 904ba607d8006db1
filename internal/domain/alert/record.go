package alert

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the lifecycle status of an alert.
type Status string

const (
	// StatusActive marks an alert nobody has handled yet.
	StatusActive Status = "active"
	// StatusResolved marks an alert handled by the console.
	StatusResolved Status = "resolved"
)

const (
	// MaxTeacherLength is the maximum number of runes kept from the teacher name.
	MaxTeacherLength = 80
	// MaxRoomLength is the maximum number of runes kept from the room name.
	MaxRoomLength = 80
	// MaxDescriptionLength is the maximum number of runes kept from the description.
	MaxDescriptionLength = 220
)

// Record is a single panic alert raised from a classroom.
type Record struct {
	// ID is unique within the tenant and assigned by the Store.
	ID int64
	// TenantID refers back to the tenant that owns the record.
	TenantID string
	// Teacher is the name of the person who raised the alert.
	Teacher string
	// Room is where the alert was raised.
	Room string
	// Description is an optional free-text note.
	Description string
	// Source is the admission key (usually the client address) of the submitter.
	Source string
	// CreatedAt is when the alert was accepted.
	CreatedAt time.Time
	// Status is the current lifecycle status.
	Status Status
}

// IsActive reports whether the alert is still waiting to be handled.
func (r *Record) IsActive() bool {
	return r.Status == StatusActive
}

// Clone returns a copy of the record to avoid leaking internal references.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	cloned := *r

	return &cloned
}

// Truncate trims surrounding whitespace and cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)

	return strings.TrimSpace(string(runes[:limit]))
}
