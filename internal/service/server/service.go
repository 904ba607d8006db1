package server

import (
	"context"
	"fmt"
	"net/http"

	httpapi "github.com/oshokin/panic-alert/internal/api/http"
	"github.com/oshokin/panic-alert/internal/config"
	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/metrics"
	"github.com/oshokin/panic-alert/internal/ratelimit"
	"github.com/oshokin/panic-alert/internal/report"
	"github.com/oshokin/panic-alert/internal/repository/school"
	"github.com/oshokin/panic-alert/internal/tenant"
)

// app is the assembled in-memory panel with its supporting components.
type app struct {
	// registry owns the tenants.
	registry *tenant.Registry
	// limiter gates alert submissions.
	limiter *ratelimit.Limiter
	// coordinator runs panel operations.
	coordinator *coordinator.Coordinator
	// broker feeds websocket watchers.
	broker *httpapi.Broker
	// recorder exposes Prometheus metrics.
	recorder *metrics.Recorder
	// schools stores school metadata.
	schools *school.FileRepository
	// reports renders cached reports.
	reports *report.Generator
}

// newPanel builds every component from validated settings.
func newApp(settings *config.Config) (*app, error) {
	registry := tenant.NewRegistry(settings.MaxTenants)
	limiter := ratelimit.New(
		settings.RateLimit.Window,
		settings.RateLimit.MaxPerWindow,
		ratelimit.WithMaxSources(settings.RateLimit.MaxSources),
	)
	broker := httpapi.NewBroker()
	recorder := metrics.New(registry, limiter)

	co := coordinator.New(
		registry,
		limiter,
		coordinator.WithRecentLimit(settings.StatusRecentLimit),
		coordinator.WithNotifier(broker),
		coordinator.WithMetrics(recorder),
	)

	schools := school.NewFileRepository(settings.SchoolsFile)

	reports, err := report.NewGenerator(co, schools, settings.ReportCacheBytes)
	if err != nil {
		return nil, fmt.Errorf("create report generator: %w", err)
	}

	return &app{
		registry:    registry,
		limiter:     limiter,
		coordinator: co,
		broker:      broker,
		recorder:    recorder,
		schools:     schools,
		reports:     reports,
	}, nil
}

// handler builds the HTTP API over the panel.
func (a *app) handler(settings *config.Config) http.Handler {
	return httpapi.NewRouter(&httpapi.Dependencies{
		Service:             a.coordinator,
		Reports:             a.reports,
		Schools:             a.schools,
		Broker:              a.broker,
		Metrics:             a.recorder.Handler(),
		ConsolePasswordHash: settings.ConsolePasswordHash,
	})
}

// startBackground runs the rate limiter sweeper until ctx is done.
func (a *app) startBackground(ctx context.Context, settings *config.Config) {
	a.limiter.StartCleanup(ctx, settings.RateLimit.SweepInterval)
}

// close releases the report cache.
func (a *app) close() {
	a.reports.Close()
}
