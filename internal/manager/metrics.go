package manager

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	streamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tokstream",
			Subsystem: "stream",
			Name:      "streams_total",
			Help:      "Total number of streams by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	streamFragmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tokstream",
			Subsystem: "stream",
			Name:      "fragments_total",
			Help:      "Raw byte fragments received from engines",
		},
	)

	streamChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tokstream",
			Subsystem: "stream",
			Name:      "chunks_total",
			Help:      "Aligned chunks delivered to clients",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tokstream",
			Subsystem: "stream",
			Name:      "bytes_total",
			Help:      "Bytes delivered to clients",
		},
	)

	streamOpaqueBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tokstream",
			Subsystem: "stream",
			Name:      "opaque_bytes_total",
			Help:      "Malformed lead bytes passed through as single-byte units",
		},
	)

	streamTruncatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tokstream",
			Subsystem: "stream",
			Name:      "truncated_total",
			Help:      "Streams that ended inside an incomplete sequence",
		},
	)

	streamMaxCarry = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tokstream",
			Subsystem: "stream",
			Name:      "max_carry_bytes",
			Help:      "Largest carry held back per stream",
			Buckets:   []float64{0, 1, 2, 3},
		},
	)

	streamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tokstream",
			Subsystem: "stream",
			Name:      "duration_seconds",
			Help:      "Stream duration from admission to final line",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		streamsTotal,
		streamFragmentsTotal,
		streamChunksTotal,
		streamBytesTotal,
		streamOpaqueBytesTotal,
		streamTruncatedTotal,
		streamMaxCarry,
		streamDuration,
	)
}
