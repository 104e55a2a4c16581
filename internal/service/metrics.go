package service

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("cyio-graph.service")

var (
	// graphBuildTotal counts graph builds by view kind.
	graphBuildTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cyio_graph_build_total",
		Help: "Total graph builds by view kind",
	}, []string{"kind"})

	// graphBuildDuration tracks build, filter and time-range latency.
	graphBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cyio_graph_build_duration_seconds",
		Help:    "Graph build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"kind"})

	// graphNodes tracks the node count of returned graphs.
	graphNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cyio_graph_nodes",
		Help:    "Number of nodes per returned graph",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
	})

	// ingestObjectsTotal counts ingested objects by result.
	ingestObjectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cyio_ingest_objects_total",
		Help: "Total objects ingested by result",
	}, []string{"result"})

	// positionsSavedTotal counts layout saves by mode.
	positionsSavedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cyio_positions_saved_total",
		Help: "Total position saves by mode",
	}, []string{"mode"})
)

func startSpan(ctx context.Context, name, containerID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{}
	if containerID != "" {
		attrs = append(attrs, attribute.String("container.id", containerID))
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
