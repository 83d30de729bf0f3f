package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return tp, exporter
}

func TestSyncRequestMetricsLogsAndEndsSpan(t *testing.T) {
	logger, hook := test.NewNullLogger()
	tp, exporter := setupTestTracer(t)

	metrics, ctx := newSyncRequestMetrics(context.Background(), logger)
	if span := trace.SpanFromContext(ctx); !span.SpanContext().IsValid() {
		t.Fatal("expected a span on the returned context")
	}
	metrics.SetAction(actionSyncContacts)
	metrics.ObserveAuth(5 * time.Millisecond)
	metrics.ObserveDecode(2 * time.Millisecond)
	metrics.ObserveAction(10 * time.Millisecond)

	metrics.Log(http.StatusOK, nil)
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("force flush spans: %v", err)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Data["route"] != "/api/method-sync" {
		t.Fatalf("unexpected route field: %v", entry.Data["route"])
	}
	if entry.Data["action"] != actionSyncContacts {
		t.Fatalf("unexpected action field: %v", entry.Data["action"])
	}
	if entry.Data["status"] != http.StatusOK {
		t.Fatalf("unexpected status field: %v", entry.Data["status"])
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "methodsync.request" {
		t.Fatalf("unexpected span name: %s", span.Name)
	}
	if len(span.Events) != 1 || span.Events[0].Name != "observability.event" {
		t.Fatalf("expected one observability event, got %+v", span.Events)
	}
	severity := ""
	for _, attr := range span.Events[0].Attributes {
		if string(attr.Key) == "severity_text" {
			severity = attr.Value.AsString()
		}
	}
	if severity != "INFO" {
		t.Fatalf("unexpected severity %q", severity)
	}
}

func TestSyncRequestMetricsErrorSeverity(t *testing.T) {
	logger, hook := test.NewNullLogger()
	tp, exporter := setupTestTracer(t)

	metrics, _ := newSyncRequestMetrics(context.Background(), logger)
	metrics.SetAction(actionCreateActivity)
	metrics.SetErrorStage("crm")

	metrics.Log(http.StatusInternalServerError, errors.New("crm down"))
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("force flush spans: %v", err)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Data["error_stage"] != "crm" {
		t.Fatalf("unexpected error stage: %v", entry.Data["error_stage"])
	}
	if entry.Data["error"] != "crm down" {
		t.Fatalf("unexpected error field: %v", entry.Data["error"])
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code.String() != "Error" {
		t.Fatalf("expected error span status, got %v", spans[0].Status.Code)
	}
}

func TestSeverityForStatus(t *testing.T) {
	cases := []struct {
		status int
		err    error
		text   string
		number int
	}{
		{http.StatusOK, nil, "INFO", 9},
		{http.StatusConflict, nil, "WARN", 13},
		{http.StatusInternalServerError, nil, "ERROR", 17},
		{http.StatusOK, errors.New("late failure"), "ERROR", 17},
	}
	for _, tc := range cases {
		text, number := severityForStatus(tc.status, tc.err)
		if text != tc.text || number != tc.number {
			t.Fatalf("status %d err %v: expected %s/%d, got %s/%d", tc.status, tc.err, tc.text, tc.number, text, number)
		}
	}
}
