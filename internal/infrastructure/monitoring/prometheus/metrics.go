package prometheus

import (
	"time"
)

// Operation label values.
const (
	OpDashboard = "dashboard"
	OpBadge     = "badge"
	OpCalendar  = "calendar"
	OpTimeline  = "timeline"
)

// Anchor field label values.
const (
	FieldStartDate          = "startDate"
	FieldImplantRemovalDate = "implantRemovalDate"
)

// AppMetrics holds every iatfmon metric.
type AppMetrics struct {
	EvaluationsTotal    CounterVec
	EvaluationDuration  HistogramVec
	InvalidAnchorsTotal CounterVec
	SourceErrorsTotal   CounterVec

	ProtocolsTotal      GaugeVec
	NearbyProtocols     GaugeVec
	LastEvaluationEpoch GaugeVec
}

// DefaultEvaluationBuckets covers sub-millisecond in-memory runs up to slow
// source reads.
var DefaultEvaluationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	return &AppMetrics{
		EvaluationsTotal:    collector.RegisterCounter("evaluations_total", "Monitoring evaluations by operation and outcome.", "operation", "status"),
		EvaluationDuration:  collector.RegisterHistogram("evaluation_duration_seconds", "Monitoring evaluation duration.", DefaultEvaluationBuckets, "operation"),
		InvalidAnchorsTotal: collector.RegisterCounter("invalid_anchor_total", "Malformed protocol anchor dates by operation and field.", "operation", "field"),
		SourceErrorsTotal:   collector.RegisterCounter("source_errors_total", "Protocol source failures by error code.", "code"),
		ProtocolsTotal:      collector.RegisterGauge("protocols", "Protocols considered in the last dashboard or badge run."),
		NearbyProtocols:     collector.RegisterGauge("nearby_protocols", "Protocols with at least one milestone needing attention."),
		LastEvaluationEpoch: collector.RegisterGauge("last_evaluation_timestamp_seconds", "Reference instant of the last evaluation, as a Unix timestamp."),
	}
}

// NewNopAppMetrics returns metrics that discard every observation.
func NewNopAppMetrics() *AppMetrics {
	return &AppMetrics{
		EvaluationsTotal:    noopCounterVec{},
		EvaluationDuration:  noopHistogramVec{},
		InvalidAnchorsTotal: noopCounterVec{},
		SourceErrorsTotal:   noopCounterVec{},
		ProtocolsTotal:      noopGaugeVec{},
		NearbyProtocols:     noopGaugeVec{},
		LastEvaluationEpoch: noopGaugeVec{},
	}
}

// Helpers

func RecordEvaluation(m *AppMetrics, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.EvaluationsTotal.WithLabelValues(operation, status).Inc()
	m.EvaluationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordInvalidAnchor counts one malformed anchor date.  A bad startDate
// excludes the record; a bad implantRemovalDate only drops that date.
func RecordInvalidAnchor(m *AppMetrics, operation, field string) {
	m.InvalidAnchorsTotal.WithLabelValues(operation, field).Inc()
}

func RecordSourceError(m *AppMetrics, code string) {
	m.SourceErrorsTotal.WithLabelValues(code).Inc()
}

// RecordSummary publishes the attention summary evaluated at now.
func RecordSummary(m *AppMetrics, total, nearby int, now time.Time) {
	m.ProtocolsTotal.WithLabelValues().Set(float64(total))
	m.NearbyProtocols.WithLabelValues().Set(float64(nearby))
	m.LastEvaluationEpoch.WithLabelValues().Set(float64(now.Unix()))
}
