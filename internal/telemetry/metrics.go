package telemetry

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal metric.Int64Counter
	HTTPDurationMs    metric.Float64Histogram

	// Business metrics
	PatientTotal   metric.Int64Counter
	TreatmentTotal metric.Int64Counter
	NoteTotal      metric.Int64Counter
	ShareTotal     metric.Int64Counter

	// Auth metrics
	AuthFailuresTotal       metric.Int64Counter
	PermissionCheckDuration metric.Float64Histogram
}

// InitMetrics initializes all custom metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/visualcare-health/treatment-service")

	httpRequestsTotal, err := meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	httpDurationMs, err := meter.Float64Histogram(
		"http_server_duration_milliseconds",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	patientTotal, err := meter.Int64Counter(
		"patient_total",
		metric.WithDescription("Total number of patient operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	treatmentTotal, err := meter.Int64Counter(
		"treatment_total",
		metric.WithDescription("Total number of treatment operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	noteTotal, err := meter.Int64Counter(
		"note_total",
		metric.WithDescription("Total number of note operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	shareTotal, err := meter.Int64Counter(
		"patient_share_total",
		metric.WithDescription("Total number of patient share operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	authFailuresTotal, err := meter.Int64Counter(
		"auth_failures_total",
		metric.WithDescription("Total number of authentication failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	permissionCheckDuration, err := meter.Float64Histogram(
		"permission_check_duration_ms",
		metric.WithDescription("Permission check duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	log.Info().Msg("custom metrics initialized")

	return &Metrics{
		HTTPRequestsTotal:       httpRequestsTotal,
		HTTPDurationMs:          httpDurationMs,
		PatientTotal:            patientTotal,
		TreatmentTotal:          treatmentTotal,
		NoteTotal:               noteTotal,
		ShareTotal:              shareTotal,
		AuthFailuresTotal:       authFailuresTotal,
		PermissionCheckDuration: permissionCheckDuration,
	}, nil
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPDurationMs.Record(ctx, durationMs, metric.WithAttributes(attrs...))
}

// RecordPatientOperation records a patient operation metric
func (m *Metrics) RecordPatientOperation(ctx context.Context, operation string) {
	m.PatientTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordTreatmentOperation records a treatment operation metric
func (m *Metrics) RecordTreatmentOperation(ctx context.Context, operation string) {
	m.TreatmentTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordNoteOperation records a note operation metric
func (m *Metrics) RecordNoteOperation(ctx context.Context, operation string) {
	m.NoteTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordShareOperation records a patient share operation metric
func (m *Metrics) RecordShareOperation(ctx context.Context, operation string) {
	m.ShareTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordAuthFailure records an authentication failure metric
func (m *Metrics) RecordAuthFailure(ctx context.Context, reason string) {
	m.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordPermissionCheck records a permission check duration metric
func (m *Metrics) RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool) {
	m.PermissionCheckDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("permission", permission),
		attribute.Bool("allowed", allowed),
	))
}
