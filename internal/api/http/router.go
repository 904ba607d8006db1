package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/domain/alert"
	"github.com/oshokin/panic-alert/internal/report"
	"github.com/oshokin/panic-alert/internal/repository/school"
)

// Service is the panel API the handlers depend on.
type Service interface {
	SubmitAlert(ctx context.Context, req *coordinator.SubmitRequest) (*alert.Record, error)
	GetStatus(ctx context.Context, tenantRef string) (*coordinator.Status, error)
	ApplySirenCommand(ctx context.Context, tenantRef, command string) (alert.SirenState, error)
	ResolveNext(ctx context.Context, tenantRef string) (bool, error)
	ResolveAll(ctx context.Context, tenantRef string) (int, error)
	ClearTenant(ctx context.Context, tenantRef string) error
	Peek(tenantRef string) (*coordinator.Status, bool)
	Tenants() []string
	TenantID(tenantRef string) string
}

// Reports renders tenant reports.
type Reports interface {
	Generate(ctx context.Context, tenantRef string, format report.Format) ([]byte, error)
}

// Dependencies are the collaborators of the router. Only Service is required.
type Dependencies struct {
	// Service runs panel operations.
	Service Service
	// Reports renders PDF and XLSX reports; nil disables the report routes.
	Reports Reports
	// Schools stores school metadata; nil disables the school routes.
	Schools school.Repository
	// Broker feeds the websocket watchers; nil disables /api/watch.
	Broker *Broker
	// Metrics serves /metrics; nil disables it.
	Metrics http.Handler
	// ConsolePasswordHash is a bcrypt hash gating console routes; empty leaves them open.
	ConsolePasswordHash string
}

// handlers holds the route handlers.
type handlers struct {
	deps *Dependencies
}

// NewRouter builds the HTTP API.
func NewRouter(deps *Dependencies) http.Handler {
	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", h.health)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/alert", h.submitAlert)
		r.Get("/status", h.status)
		r.Get("/siren/play", h.sirenPlay)

		if deps.Broker != nil {
			r.Get("/watch", h.watch)
		}

		if deps.Schools != nil {
			r.Get("/school", h.getSchool)
		}

		r.Group(func(r chi.Router) {
			r.Use(consoleGate([]byte(deps.ConsolePasswordHash)))

			r.Post("/siren", h.siren)
			r.Post("/siren/test", h.sirenTest)
			r.Post("/resolve", h.resolve)
			r.Post("/resolve-all", h.resolveAll)
			r.Post("/clear", h.clear)
			r.Get("/tenants", h.tenants)

			if deps.Reports != nil {
				r.Get("/report.pdf", h.report(report.FormatPDF))
				r.Get("/report.xlsx", h.report(report.FormatXLSX))
			}

			if deps.Schools != nil {
				r.Put("/school", h.putSchool)
			}
		})
	})

	return r
}
