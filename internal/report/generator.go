package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/logger"
	"github.com/oshokin/panic-alert/internal/repository/school"
)

// Format is a report file format.
type Format string

const (
	// FormatPDF renders a printable document.
	FormatPDF Format = "pdf"
	// FormatXLSX renders a spreadsheet.
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/pdf"
	}
}

// cacheTTL bounds how long an unchanged report stays cached.
const cacheTTL = 10 * time.Minute

// ErrUnknownFormat is returned for unsupported report formats.
var ErrUnknownFormat = errors.New("unknown report format")

// Source provides read-only snapshots of a tenant.
type Source interface {
	Snapshot(ctx context.Context, tenantRef string, limit int) (*coordinator.Status, error)
}

// Generator renders reports and caches them per tenant revision.
type Generator struct {
	// source provides tenant snapshots.
	source Source
	// schools provides report headers; may be nil.
	schools school.Repository
	// cache holds rendered reports keyed by tenant, revision and format.
	cache *ristretto.Cache[string, []byte]
	// group collapses concurrent renders of the same report.
	group singleflight.Group
}

// NewGenerator creates a generator whose cache may use up to maxCostBytes.
func NewGenerator(source Source, schools school.Repository, maxCostBytes int64) (*Generator, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxCostBytes/1024, 1000), // ~10x expected reports of ~10 KiB
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create report cache: %w", err)
	}

	return &Generator{
		source:  source,
		schools: schools,
		cache:   cache,
	}, nil
}

// Generate renders the full alert history of a tenant in the requested format.
// Reports are served from cache while the tenant revision and the school
// header are unchanged.
func (g *Generator) Generate(ctx context.Context, tenantRef string, format Format) ([]byte, error) {
	if format != FormatPDF && format != FormatXLSX {
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}

	status, err := g.source.Snapshot(ctx, tenantRef, 0)
	if err != nil {
		return nil, err
	}

	info, err := g.loadSchool(ctx, status.TenantID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s:%d:%s:%016x", status.TenantID, status.Revision, format, fingerprint(info))

	if data, ok := g.cache.Get(key); ok {
		logger.DebugKV(ctx, "Report served from cache", "key", key)

		return data, nil
	}

	result, err, _ := g.group.Do(key, func() (any, error) {
		logger.InfoKV(ctx, "Rendering report", "tenant", status.TenantID, "format", format, "alerts", len(status.Alerts))

		data, err := render(info, status, format)
		if err != nil {
			return nil, err
		}

		g.cache.SetWithTTL(key, data, int64(len(data)), cacheTTL)

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	data, _ := result.([]byte) //nolint:errcheck // The closure only returns []byte.

	return data, nil
}

// Close releases the cache.
func (g *Generator) Close() {
	g.cache.Close()
}

// loadSchool returns the report header of a tenant, or nil when none is stored.
func (g *Generator) loadSchool(ctx context.Context, tenantID string) (*school.School, error) {
	if g.schools == nil {
		return nil, nil //nolint:nilnil // No repository means no header.
	}

	info, err := g.schools.Load(ctx, tenantID)

	switch {
	case err == nil:
		return info, nil
	case errors.Is(err, school.ErrNotFound):
		return nil, nil //nolint:nilnil // Render without a header.
	default:
		return nil, fmt.Errorf("load school: %w", err)
	}
}

// fingerprint hashes the school header so edits produce a new cache key.
func fingerprint(info *school.School) uint64 {
	if info == nil {
		return 0
	}

	return xxhash.Sum64String(strings.Join([]string{
		info.Name,
		info.Address,
		info.City,
		info.Phone,
		info.Director,
	}, "\x00"))
}

// render produces the document in the requested format.
func render(info *school.School, status *coordinator.Status, format Format) ([]byte, error) {
	if format == FormatXLSX {
		return RenderXLSX(info, status)
	}

	return RenderPDF(info, status)
}
