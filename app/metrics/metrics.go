package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lysyi3m/regcheck/app/registry"
)

// Metrics tracks reconciliation runs and the classified rows they produce.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RowsClassified  *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	AcquireDuration *prometheus.HistogramVec
}

// New creates a Metrics instance with all collectors registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regcheck_runs_total",
			Help: "Total number of reconciliation runs by domain and outcome",
		}, []string{"domain", "outcome"}),
		RowsClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regcheck_rows_classified_total",
			Help: "Total number of result rows by domain and status tag",
		}, []string{"domain", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regcheck_run_duration_seconds",
			Help:    "Duration of reconciliation runs including acquisition",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"domain"}),
		AcquireDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regcheck_acquisition_duration_seconds",
			Help:    "Duration of input acquisition (registry download and local book read)",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"domain"}),
	}
}

// ObserveReport records a completed run and its status counts.
// Call with time.Now() at the start of the run.
func (m *Metrics) ObserveReport(report *registry.Report, start time.Time) {
	domain := string(report.Domain)
	m.RunsTotal.WithLabelValues(domain, "completed").Inc()
	m.RunDuration.WithLabelValues(domain).Observe(time.Since(start).Seconds())
	for status, count := range report.Counts {
		m.RowsClassified.WithLabelValues(domain, string(status)).Add(float64(count))
	}
}

// ObserveFailure records a run that ended without output.
func (m *Metrics) ObserveFailure(domain registry.Domain, start time.Time) {
	m.RunsTotal.WithLabelValues(string(domain), "failed").Inc()
	m.RunDuration.WithLabelValues(string(domain)).Observe(time.Since(start).Seconds())
}

// ObserveAcquisition records how long loading the inputs of a run took.
func (m *Metrics) ObserveAcquisition(domain registry.Domain, start time.Time) {
	m.AcquireDuration.WithLabelValues(string(domain)).Observe(time.Since(start).Seconds())
}
