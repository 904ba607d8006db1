package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "panic_alert_"

// Counter reports a current size, e.g. the number of tenants.
type Counter interface {
	Len() int
}

// Recorder holds the panel metric instruments on a private registry.
type Recorder struct {
	// registry is the registry every instrument is registered on.
	registry *prometheus.Registry
	// alertsSubmitted counts accepted alerts per tenant.
	alertsSubmitted *prometheus.CounterVec
	// submissionsRejected counts rejected submissions per reason.
	submissionsRejected *prometheus.CounterVec
	// sirenCommands counts applied siren commands per command.
	sirenCommands *prometheus.CounterVec
}

// New creates the instruments and registers gauges reading tenants and tracked sources.
// Either counter may be nil.
func New(tenants, sources Counter) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		alertsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "alerts_submitted_total",
			Help: "Accepted panic alerts",
		}, []string{"tenant"}),
		submissionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "submissions_rejected_total",
			Help: "Rejected alert submissions",
		}, []string{"reason"}),
		sirenCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "siren_commands_total",
			Help: "Applied siren commands",
		}, []string{"command"}),
	}

	r.registry.MustRegister(
		r.alertsSubmitted,
		r.submissionsRejected,
		r.sirenCommands,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if tenants != nil {
		r.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: metricPrefix + "tenants",
				Help: "Tenants held in memory",
			},
			func() float64 { return float64(tenants.Len()) },
		))
	}

	if sources != nil {
		r.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: metricPrefix + "rate_limit_sources",
				Help: "Sources tracked by the rate limiter",
			},
			func() float64 { return float64(sources.Len()) },
		))
	}

	return r
}

// AlertAccepted counts an accepted alert.
func (r *Recorder) AlertAccepted(tenantID string) {
	r.alertsSubmitted.WithLabelValues(tenantID).Inc()
}

// SubmissionRejected counts a rejected submission.
func (r *Recorder) SubmissionRejected(reason string) {
	r.submissionsRejected.WithLabelValues(reason).Inc()
}

// SirenCommandApplied counts an applied siren command.
func (r *Recorder) SirenCommandApplied(command string) {
	r.sirenCommands.WithLabelValues(command).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
