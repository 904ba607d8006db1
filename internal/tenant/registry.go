package tenant

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/oshokin/panic-alert/internal/domain/alert"
)

const (
	// DefaultID is used when a reference is empty after sanitization.
	DefaultID = "default"
	// MaxIDLength caps the length of a sanitized tenant identifier.
	MaxIDLength = 64
)

// ErrTenantLimit is returned when creating a tenant would exceed the configured maximum.
var ErrTenantLimit = errors.New("tenant limit reached")

// Tenant is the isolated alert history and siren of one school.
// Mu guards Alerts, Siren and Revision together.
type Tenant struct {
	// ID is the sanitized tenant identifier.
	ID string
	// Alerts is the alert history, most recent first.
	Alerts *alert.Store
	// Siren is the tenant siren state.
	Siren alert.SirenState
	// Revision increments on every mutation.
	Revision uint64
	// Mu is the tenant lock. Writers take Lock, snapshot readers take RLock.
	Mu sync.RWMutex
}

// Registry owns every tenant for the lifetime of the process.
type Registry struct {
	// tenants maps sanitized identifiers to tenants.
	tenants map[string]*Tenant
	// maxTenants caps the number of tenants; zero means unlimited.
	maxTenants int
	// mu protects tenants. It is held only for lookup and create-if-absent.
	mu sync.RWMutex
}

// NewRegistry creates an empty registry. A non-positive maxTenants disables the cap.
func NewRegistry(maxTenants int) *Registry {
	if maxTenants < 0 {
		maxTenants = 0
	}

	return &Registry{
		tenants:    make(map[string]*Tenant),
		maxTenants: maxTenants,
	}
}

// Sanitize normalizes a raw tenant reference: lower case, only letters, digits,
// '-' and '_', at most MaxIDLength characters, DefaultID when nothing remains.
func Sanitize(raw string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if b.Len() >= MaxIDLength {
			break
		}

		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return DefaultID
	}

	return b.String()
}

// Resolve sanitizes raw and returns its tenant, creating it on first reference.
// Concurrent first references to the same id observe the same tenant.
func (r *Registry) Resolve(raw string) (*Tenant, error) {
	id := Sanitize(raw)

	r.mu.RLock()
	t, ok := r.tenants[id]
	r.mu.RUnlock()

	if ok {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok = r.tenants[id]; ok {
		return t, nil
	}

	if r.maxTenants > 0 && len(r.tenants) >= r.maxTenants {
		return nil, ErrTenantLimit
	}

	t = &Tenant{
		ID:     id,
		Alerts: alert.NewStore(),
	}
	r.tenants[id] = t

	return t, nil
}

// Lookup returns the tenant for raw without creating it.
func (r *Registry) Lookup(raw string) (*Tenant, bool) {
	id := Sanitize(raw)

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tenants[id]

	return t, ok
}

// IDs returns the known tenant identifiers in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.tenants))

	for id := range r.tenants {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)

	return ids
}

// Len returns the number of tenants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tenants)
}
