package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// syncRequestMetrics collects per-stage timings for one sync request and
// emits them as a single structured log line plus an otel span on completion.
type syncRequestMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time

	action         string
	authDuration   time.Duration
	decodeDuration time.Duration
	actionDuration time.Duration
	errorStage     string
}

func newSyncRequestMetrics(ctx context.Context, logger *log.Logger) (*syncRequestMetrics, context.Context) {
	spanCtx, span := otel.Tracer("methodsync").Start(ctx, "methodsync.request")
	return &syncRequestMetrics{logger: logger, span: span, start: time.Now()}, spanCtx
}

func (m *syncRequestMetrics) SetAction(action string) {
	m.action = action
}

func (m *syncRequestMetrics) ObserveAuth(d time.Duration) {
	if d > 0 {
		m.authDuration = d
	}
}

func (m *syncRequestMetrics) ObserveDecode(d time.Duration) {
	if d > 0 {
		m.decodeDuration = d
	}
}

func (m *syncRequestMetrics) ObserveAction(d time.Duration) {
	if d > 0 {
		m.actionDuration = d
	}
}

func (m *syncRequestMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

// Log emits the metrics line and closes the span. Call exactly once per
// request.
func (m *syncRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	totalMs := durationToMillis(time.Since(m.start))
	fields := log.Fields{
		"route":    "/api/method-sync",
		"status":   status,
		"total_ms": totalMs,
	}
	if m.action != "" {
		fields["action"] = m.action
	}
	if m.authDuration > 0 {
		fields["auth_ms"] = durationToMillis(m.authDuration)
	}
	if m.decodeDuration > 0 {
		fields["decode_ms"] = durationToMillis(m.decodeDuration)
	}
	if m.actionDuration > 0 {
		fields["action_ms"] = durationToMillis(m.actionDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	severityText, severityNumber := severityForStatus(status, err)

	if m.span != nil {
		attrs := []attribute.KeyValue{
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
			attribute.Int("http.status_code", status),
			attribute.Float64("methodsync.total_ms", totalMs),
		}
		if m.action != "" {
			attrs = append(attrs, attribute.String("methodsync.action", m.action))
		}
		if m.errorStage != "" {
			attrs = append(attrs, attribute.String("methodsync.error_stage", m.errorStage))
		}
		if err != nil {
			attrs = append(attrs, attribute.String("error.message", err.Error()))
		}
		m.span.AddEvent("observability.event", trace.WithAttributes(attrs...))
		if severityText == "ERROR" {
			desc := m.errorStage
			if err != nil {
				desc = err.Error()
			}
			m.span.SetStatus(codes.Error, desc)
		}
		m.span.End()
	}

	entry := m.logger.WithFields(fields)
	switch severityText {
	case "ERROR":
		entry.Error("methodsync.request.metrics")
	case "WARN":
		entry.Warn("methodsync.request.metrics")
	default:
		entry.Info("methodsync.request.metrics")
	}
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
