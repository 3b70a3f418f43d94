package telemetry

import (
	"context"
	"fmt"
	"time"

	ocprom "contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	MQueries        = stats.Int64("rangeq/queries", "number of box queries", stats.UnitDimensionless)
	MQueryLatencyMs = stats.Float64("rangeq/query_latency", "query latency", stats.UnitMilliseconds)
	MReportedPoints = stats.Int64("rangeq/reported_points", "points reported by queries", stats.UnitDimensionless)
	MCollected      = stats.Int64("rangeq/collected_points", "points accepted for indexing", stats.UnitDimensionless)

	KeyDataset = tag.MustNewKey("dataset")
)

var views = []*view.View{
	{
		Name:        "rangeq/queries",
		Description: "number of box queries by dataset",
		Measure:     MQueries,
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.Count(),
	},
	{
		Name:        "rangeq/query_latency",
		Description: "query latency distribution",
		Measure:     MQueryLatencyMs,
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.Distribution(0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 500),
	},
	{
		Name:        "rangeq/reported_points",
		Description: "points reported by queries",
		Measure:     MReportedPoints,
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.Sum(),
	},
	{
		Name:        "rangeq/collected_points",
		Description: "points accepted for indexing",
		Measure:     MCollected,
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.Sum(),
	},
}

// NewExporter registers the views and returns the prometheus exporter for
// mounting at /metrics.
func NewExporter(namespace string) (*ocprom.Exporter, error) {
	if err := view.Register(views...); err != nil {
		return nil, fmt.Errorf("unable register views: %w", err)
	}
	if err := view.Register(ochttp.DefaultServerViews...); err != nil {
		return nil, fmt.Errorf("unable register http views: %w", err)
	}
	exporter, err := ocprom.NewExporter(ocprom.Options{Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("unable create prometheus exporter: %w", err)
	}
	view.RegisterExporter(exporter)
	return exporter, nil
}

// RecordQuery records one box query against a dataset.
func RecordQuery(ctx context.Context, dataset string, elapsed time.Duration, reported int) {
	ctx, err := tag.New(ctx, tag.Upsert(KeyDataset, dataset))
	if err != nil {
		return
	}
	stats.Record(ctx,
		MQueries.M(1),
		MQueryLatencyMs.M(float64(elapsed)/float64(time.Millisecond)),
		MReportedPoints.M(int64(reported)),
	)
}

// RecordCollect records points accepted for indexing.
func RecordCollect(ctx context.Context, dataset string, n int) {
	ctx, err := tag.New(ctx, tag.Upsert(KeyDataset, dataset))
	if err != nil {
		return
	}
	stats.Record(ctx, MCollected.M(int64(n)))
}
