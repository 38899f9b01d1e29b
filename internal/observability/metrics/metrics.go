// Package metrics captures billing pipeline health signals.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes prometheus instruments for the metering and invoicing
// pipeline.
type Metrics struct {
	usageRecordsTracked *prometheus.CounterVec
	trackFailures       *prometheus.CounterVec
	invoicesGenerated   prometheus.Counter
	generationFailures  prometheus.Counter
	generationDuration  prometheus.Histogram
	taxCalculations     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		usageRecordsTracked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudkhata_usage_records_tracked_total",
			Help: "Usage records written per resource category.",
		}, []string{"category"}),
		trackFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudkhata_usage_track_failures_total",
			Help: "Tracking failures per resource category.",
		}, []string{"category"}),
		invoicesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cloudkhata_invoices_generated_total",
			Help: "Invoices created in draft status.",
		}),
		generationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cloudkhata_invoice_generation_failures_total",
			Help: "Invoice generation calls that returned a failure result.",
		}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cloudkhata_invoice_generation_duration_seconds",
			Help:    "Wall time of generateInvoice calls.",
			Buckets: prometheus.DefBuckets,
		}),
		taxCalculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudkhata_tax_calculations_total",
			Help: "GST calculations by tax type.",
		}, []string{"tax_type"}),
	}

	collectors := []prometheus.Collector{
		m.usageRecordsTracked,
		m.trackFailures,
		m.invoicesGenerated,
		m.generationFailures,
		m.generationDuration,
		m.taxCalculations,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) IncUsageTracked(category string) {
	if m == nil {
		return
	}
	m.usageRecordsTracked.WithLabelValues(category).Inc()
}

func (m *Metrics) IncTrackFailure(category string) {
	if m == nil {
		return
	}
	m.trackFailures.WithLabelValues(category).Inc()
}

func (m *Metrics) IncInvoiceGenerated() {
	if m == nil {
		return
	}
	m.invoicesGenerated.Inc()
}

func (m *Metrics) IncGenerationFailure() {
	if m == nil {
		return
	}
	m.generationFailures.Inc()
}

func (m *Metrics) ObserveGenerationDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.Observe(d.Seconds())
}

func (m *Metrics) IncTaxCalculation(taxType string) {
	if m == nil {
		return
	}
	m.taxCalculations.WithLabelValues(taxType).Inc()
}

func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func provideRegisterer(reg *prometheus.Registry) prometheus.Registerer { return reg }

// Module wires the prometheus registry and pipeline instruments.
var Module = fx.Module("observability.metrics",
	fx.Provide(NewRegistry),
	fx.Provide(provideRegisterer),
	fx.Provide(New),
)
