package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/ctxmerge/internal/collectors"
)

var (
	metricsOnce       sync.Once
	collectorDuration otelmetric.Float64Histogram
	collectorChunks   otelmetric.Int64Counter
	collectorErrors   otelmetric.Int64Counter
	selectedChunks    otelmetric.Int64Histogram
	bundleTokens      otelmetric.Int64Histogram
)

func initMetrics(log *zap.Logger) {
	meter := otel.Meter("ctxmerge/internal/orchestrator")
	var err error
	collectorDuration, err = meter.Float64Histogram(
		"ctxmerge_collector_duration_seconds",
		otelmetric.WithDescription("Wall time of one collector run"),
		otelmetric.WithUnit("s"),
	)
	if err != nil {
		log.Warn("metrics init", zap.String("instrument", "ctxmerge_collector_duration_seconds"), zap.Error(err))
	}
	collectorChunks, err = meter.Int64Counter(
		"ctxmerge_collector_chunks_total",
		otelmetric.WithDescription("Chunks produced per collector"),
	)
	if err != nil {
		log.Warn("metrics init", zap.String("instrument", "ctxmerge_collector_chunks_total"), zap.Error(err))
	}
	collectorErrors, err = meter.Int64Counter(
		"ctxmerge_collector_errors_total",
		otelmetric.WithDescription("Error chunks produced per collector, timeouts included"),
	)
	if err != nil {
		log.Warn("metrics init", zap.String("instrument", "ctxmerge_collector_errors_total"), zap.Error(err))
	}
	selectedChunks, err = meter.Int64Histogram(
		"ctxmerge_selected_chunks",
		otelmetric.WithDescription("Chunks kept by budgeted selection"),
	)
	if err != nil {
		log.Warn("metrics init", zap.String("instrument", "ctxmerge_selected_chunks"), zap.Error(err))
	}
	bundleTokens, err = meter.Int64Histogram(
		"ctxmerge_bundle_tokens",
		otelmetric.WithDescription("Token count of the merged context"),
	)
	if err != nil {
		log.Warn("metrics init", zap.String("instrument", "ctxmerge_bundle_tokens"), zap.Error(err))
	}
}

func recordCollector(ctx context.Context, id collectors.SourceID, took time.Duration, chunks, errs int) {
	attrs := otelmetric.WithAttributes(attribute.String("source.id", string(id)))
	if collectorDuration != nil {
		collectorDuration.Record(ctx, took.Seconds(), attrs)
	}
	if collectorChunks != nil {
		collectorChunks.Add(ctx, int64(chunks), attrs)
	}
	if collectorErrors != nil && errs > 0 {
		collectorErrors.Add(ctx, int64(errs), attrs)
	}
}

func recordSelection(ctx context.Context, selected, tokens int) {
	if selectedChunks != nil {
		selectedChunks.Record(ctx, int64(selected))
	}
	if bundleTokens != nil {
		bundleTokens.Record(ctx, int64(tokens))
	}
}
