package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/panic-alert/internal/clock"
	"github.com/oshokin/panic-alert/internal/domain/alert"
	"github.com/oshokin/panic-alert/internal/logger"
	"github.com/oshokin/panic-alert/internal/ratelimit"
	"github.com/oshokin/panic-alert/internal/tenant"
)

// DefaultRecentLimit is the number of alerts returned by GetStatus when not configured.
const DefaultRecentLimit = 50

// Limiter gates alert submissions per source.
type Limiter interface {
	Allow(key string) ratelimit.Decision
}

// EventKind names the operation that changed a tenant.
type EventKind string

const (
	// EventAlertSubmitted follows an accepted alert.
	EventAlertSubmitted EventKind = "alert_submitted"
	// EventSirenCommand follows a console siren command.
	EventSirenCommand EventKind = "siren_command"
	// EventResolved follows resolve-next and resolve-all.
	EventResolved EventKind = "resolved"
	// EventCleared follows a tenant clear.
	EventCleared EventKind = "cleared"
)

// Event describes a committed tenant mutation.
type Event struct {
	// TenantID is the sanitized tenant identifier.
	TenantID string
	// Kind is the operation that produced the event.
	Kind EventKind
	// Revision is the tenant revision after the mutation.
	Revision uint64
}

// Notifier receives events after the tenant lock is released.
// Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Metrics records coordinator outcomes.
type Metrics interface {
	AlertAccepted(tenantID string)
	SubmissionRejected(reason string)
	SirenCommandApplied(command string)
}

// SubmitRequest is a validated-on-entry alert submission.
type SubmitRequest struct {
	// Tenant is the raw tenant reference.
	Tenant string
	// Teacher is who raises the alert. Required.
	Teacher string
	// Room is where the alert is raised. Required.
	Room string
	// Description is an optional note.
	Description string
	// Source is the admission key, usually the client address.
	Source string
}

// Status is a consistent snapshot of one tenant.
type Status struct {
	// TenantID is the sanitized tenant identifier.
	TenantID string
	// Siren is the siren state.
	Siren alert.SirenState
	// TotalAlerts counts every alert in the history.
	TotalAlerts int
	// ActiveAlerts counts alerts not yet resolved.
	ActiveAlerts int
	// Alerts holds the most recent alerts, most recent first.
	Alerts []alert.Record
	// Revision is the tenant revision the snapshot was taken at.
	Revision uint64
	// ServerTime is when the snapshot was taken.
	ServerTime time.Time
}

// Coordinator ties the tenant registry, the rate limiter and the siren state machine together.
type Coordinator struct {
	// registry owns all tenants.
	registry *tenant.Registry
	// limiter gates alert submissions.
	limiter Limiter
	// clock stamps records and siren updates.
	clock clock.Clock
	// recentLimit caps Status.Alerts.
	recentLimit int
	// notifier is told about committed mutations; may be nil.
	notifier Notifier
	// metrics records outcomes; may be nil.
	metrics Metrics
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) {
		if c != nil {
			co.clock = c
		}
	}
}

// WithRecentLimit sets how many alerts GetStatus returns.
func WithRecentLimit(n int) Option {
	return func(co *Coordinator) {
		if n > 0 {
			co.recentLimit = n
		}
	}
}

// WithNotifier registers a change notifier.
func WithNotifier(n Notifier) Option {
	return func(co *Coordinator) {
		co.notifier = n
	}
}

// WithMetrics registers a metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(co *Coordinator) {
		co.metrics = m
	}
}

// New creates a coordinator over the given registry and limiter.
func New(registry *tenant.Registry, limiter Limiter, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:    registry,
		limiter:     limiter,
		clock:       clock.Real{},
		recentLimit: DefaultRecentLimit,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SubmitAlert admits, validates and stores an alert, then sounds the siren unless muted.
func (c *Coordinator) SubmitAlert(ctx context.Context, req *SubmitRequest) (*alert.Record, error) {
	if req == nil {
		return nil, &InputError{Field: "request", Reason: "is required"}
	}

	if c.limiter != nil {
		if decision := c.limiter.Allow(req.Source); !decision.Allowed {
			c.rejected("rate_limited")
			logger.WarnKV(ctx, "Alert submission throttled", "source", req.Source, "retry_after", decision.RetryAfter)

			return nil, &RateLimitError{Source: req.Source, RetryAfter: decision.RetryAfter}
		}
	}

	rec, err := buildRecord(req)
	if err != nil {
		c.rejected("invalid_input")

		return nil, err
	}

	t, err := c.tenant(req.Tenant)
	if err != nil {
		c.rejected("tenant")

		return nil, err
	}

	t.Mu.Lock()
	now := c.clock.Now()
	rec.TenantID = t.ID
	rec.CreatedAt = now
	stored := t.Alerts.Insert(rec)
	t.Siren.AlertSubmitted(now)
	t.Revision++
	event := Event{TenantID: t.ID, Kind: EventAlertSubmitted, Revision: t.Revision}
	sounding := t.Siren.Sounding()
	t.Mu.Unlock()

	if c.metrics != nil {
		c.metrics.AlertAccepted(t.ID)
	}

	logger.InfoKV(
		ctx,
		"Alert accepted",
		"tenant", t.ID,
		"alert_id", stored.ID,
		"teacher", stored.Teacher,
		"room", stored.Room,
		"siren_sounding", sounding,
	)

	c.notify(ctx, event)

	return stored, nil
}

// GetStatus returns the recent alerts, counts and siren state as of one lock acquisition.
func (c *Coordinator) GetStatus(ctx context.Context, tenantRef string) (*Status, error) {
	return c.Snapshot(ctx, tenantRef, c.recentLimit)
}

// Snapshot is GetStatus with an explicit alert limit; a non-positive limit returns the whole history.
func (c *Coordinator) Snapshot(ctx context.Context, tenantRef string, limit int) (*Status, error) {
	t, err := c.tenant(tenantRef)
	if err != nil {
		return nil, err
	}

	t.Mu.RLock()
	status := &Status{
		TenantID:     t.ID,
		Siren:        t.Siren,
		TotalAlerts:  t.Alerts.Len(),
		ActiveAlerts: t.Alerts.CountActive(),
		Alerts:       t.Alerts.Snapshot(limit),
		Revision:     t.Revision,
		ServerTime:   c.clock.Now(),
	}
	t.Mu.RUnlock()

	logger.DebugKV(ctx, "Status requested", "tenant", status.TenantID, "active_alerts", status.ActiveAlerts)

	return status, nil
}

// Peek returns the status of an existing tenant without creating it.
// The snapshot carries no alert records.
func (c *Coordinator) Peek(tenantRef string) (*Status, bool) {
	t, ok := c.registry.Lookup(tenantRef)
	if !ok {
		return nil, false
	}

	t.Mu.RLock()
	defer t.Mu.RUnlock()

	return &Status{
		TenantID:     t.ID,
		Siren:        t.Siren,
		TotalAlerts:  t.Alerts.Len(),
		ActiveAlerts: t.Alerts.CountActive(),
		Revision:     t.Revision,
		ServerTime:   c.clock.Now(),
	}, true
}

// ApplySirenCommand runs a console command against the tenant siren.
func (c *Coordinator) ApplySirenCommand(ctx context.Context, tenantRef, command string) (alert.SirenState, error) {
	cmd, err := alert.ParseCommand(command)
	if err != nil {
		return alert.SirenState{}, &CommandError{Command: command}
	}

	t, err := c.tenant(tenantRef)
	if err != nil {
		return alert.SirenState{}, err
	}

	t.Mu.Lock()

	if err = t.Siren.Apply(cmd, c.clock.Now()); err != nil {
		t.Mu.Unlock()

		return alert.SirenState{}, &CommandError{Command: command}
	}

	t.Revision++
	state := t.Siren
	event := Event{TenantID: t.ID, Kind: EventSirenCommand, Revision: t.Revision}
	t.Mu.Unlock()

	if c.metrics != nil {
		c.metrics.SirenCommandApplied(string(cmd))
	}

	logger.InfoKV(ctx, "Siren command applied", "tenant", t.ID, "command", cmd, "mode", state.Mode())

	c.notify(ctx, event)

	return state, nil
}

// ResolveNext resolves the first active alert and turns the siren off when none remain.
// It reports whether an alert was resolved; with no active alert nothing changes.
func (c *Coordinator) ResolveNext(ctx context.Context, tenantRef string) (bool, error) {
	t, err := c.tenant(tenantRef)
	if err != nil {
		return false, err
	}

	t.Mu.Lock()

	if !t.Alerts.MarkFirstActiveResolved() {
		t.Mu.Unlock()

		return false, nil
	}

	remaining := t.Alerts.CountActive()
	if remaining == 0 {
		t.Siren.Deactivate(c.clock.Now())
	}

	t.Revision++
	event := Event{TenantID: t.ID, Kind: EventResolved, Revision: t.Revision}
	t.Mu.Unlock()

	logger.InfoKV(ctx, "Alert resolved", "tenant", t.ID, "active_alerts", remaining)

	c.notify(ctx, event)

	return true, nil
}

// ResolveAll resolves every alert and turns the siren off. It returns how many alerts changed.
func (c *Coordinator) ResolveAll(ctx context.Context, tenantRef string) (int, error) {
	t, err := c.tenant(tenantRef)
	if err != nil {
		return 0, err
	}

	t.Mu.Lock()
	resolved := t.Alerts.MarkAllResolved()
	t.Siren.Deactivate(c.clock.Now())
	t.Revision++
	event := Event{TenantID: t.ID, Kind: EventResolved, Revision: t.Revision}
	t.Mu.Unlock()

	logger.InfoKV(ctx, "All alerts resolved", "tenant", t.ID, "resolved", resolved)

	c.notify(ctx, event)

	return resolved, nil
}

// ClearTenant empties the alert history and resets the siren. The tenant itself remains.
func (c *Coordinator) ClearTenant(ctx context.Context, tenantRef string) error {
	t, err := c.tenant(tenantRef)
	if err != nil {
		return err
	}

	t.Mu.Lock()
	t.Alerts.Clear()
	t.Siren.Reset()
	t.Revision++
	event := Event{TenantID: t.ID, Kind: EventCleared, Revision: t.Revision}
	t.Mu.Unlock()

	logger.InfoKV(ctx, "Tenant cleared", "tenant", t.ID)

	c.notify(ctx, event)

	return nil
}

// Tenants lists the known tenant identifiers.
func (c *Coordinator) Tenants() []string {
	return c.registry.IDs()
}

// TenantID returns the sanitized form of a tenant reference without creating the tenant.
func (c *Coordinator) TenantID(tenantRef string) string {
	return tenant.Sanitize(tenantRef)
}

// tenant resolves a reference into a tenant, mapping registry failures to ErrTenantResolution.
func (c *Coordinator) tenant(tenantRef string) (*tenant.Tenant, error) {
	t, err := c.registry.Resolve(tenantRef)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantLimit) {
			return nil, fmt.Errorf("%w: %w", ErrTenantResolution, err)
		}

		return nil, fmt.Errorf("resolve tenant: %w", err)
	}

	return t, nil
}

// notify forwards an event to the notifier, if any.
func (c *Coordinator) notify(ctx context.Context, event Event) {
	if c.notifier != nil {
		c.notifier.Notify(ctx, event)
	}
}

// rejected records a rejected submission.
func (c *Coordinator) rejected(reason string) {
	if c.metrics != nil {
		c.metrics.SubmissionRejected(reason)
	}
}

// buildRecord validates and truncates the submitted fields.
func buildRecord(req *SubmitRequest) (*alert.Record, error) {
	rec := &alert.Record{
		Teacher:     alert.Truncate(req.Teacher, alert.MaxTeacherLength),
		Room:        alert.Truncate(req.Room, alert.MaxRoomLength),
		Description: alert.Truncate(req.Description, alert.MaxDescriptionLength),
		Source:      req.Source,
	}

	if rec.Teacher == "" {
		return nil, &InputError{Field: "teacher", Reason: "is required"}
	}

	if rec.Room == "" {
		return nil, &InputError{Field: "room", Reason: "is required"}
	}

	return rec, nil
}
