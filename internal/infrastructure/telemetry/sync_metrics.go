package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics tracks the synchronization engine: reconciliation outcomes,
// their latency and the size of published views.
type SyncMetrics struct {
	logger *zap.Logger

	syncTotal      metric.Int64Counter
	syncDuration   metric.Float64Histogram
	publishedItems metric.Int64Gauge
}

// NewSyncMetrics registers the engine instruments on the given meter.
func NewSyncMetrics(meter metric.Meter, logger *zap.Logger) (*SyncMetrics, error) {
	syncTotal, err := meter.Int64Counter(
		"orderdesk_sync_total",
		metric.WithDescription("Total reconciliation attempts by outcome"),
		metric.WithUnit("{syncs}"),
	)
	if err != nil {
		return nil, err
	}

	syncDuration, err := meter.Float64Histogram(
		"orderdesk_sync_duration_seconds",
		metric.WithDescription("End-to-end reconciliation duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	publishedItems, err := meter.Int64Gauge(
		"orderdesk_published_items",
		metric.WithDescription("Size of the last published item set"),
		metric.WithUnit("{items}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		logger:         logger,
		syncTotal:      syncTotal,
		syncDuration:   syncDuration,
		publishedItems: publishedItems,
	}, nil
}

// ObserveSync records one reconciliation attempt.
func (m *SyncMetrics) ObserveSync(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.syncTotal.Add(ctx, 1, attrs)
	m.syncDuration.Record(ctx, duration.Seconds(), attrs)
}

// ObservePublish records the size of a published full set.
func (m *SyncMetrics) ObservePublish(ctx context.Context, items int) {
	m.publishedItems.Record(ctx, int64(items))
}
