package runtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/mohammad-safakhou/ctxmerge/config"
)

func TestSetupTelemetryDisabled(t *testing.T) {
	tel, err := SetupTelemetry(context.Background(), config.TelemetryConfig{}, TelemetryOptions{})
	if err != nil {
		t.Fatalf("SetupTelemetry() error = %v", err)
	}
	if tel.MetricsHandler() != nil {
		t.Fatalf("expected no metrics handler when disabled")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestSetupTelemetryServesMetrics(t *testing.T) {
	ctx := context.Background()
	tel, err := SetupTelemetry(ctx, config.TelemetryConfig{Enabled: true, MetricsPath: "/metrics"}, TelemetryOptions{ServiceVersion: "test"})
	if err != nil {
		t.Fatalf("SetupTelemetry() error = %v", err)
	}
	defer func() { _ = tel.Shutdown(ctx) }()

	counter, err := otel.Meter("telemetry_test").Int64Counter("ctxmerge_test_events_total")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	counter.Add(ctx, 3)

	rec := httptest.NewRecorder()
	tel.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "ctxmerge_test_events_total") {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("metrics output missing go collector")
	}
}
