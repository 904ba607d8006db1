// Package clock provides the time source and timestamp formats used across
// the panel: a day-first display layout and an RFC 3339 sortable layout.
package clock
