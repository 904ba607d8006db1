// Package ratelimit implements per-source sliding-window admission control
// for alert submissions.
//
// Sources are keyed by network address, not by tenant, so one limiter is
// shared by all schools. Idle sources are reclaimed by Sweep, either from the
// background cleanup loop or inline when the tracked-source cap is reached.
package ratelimit
