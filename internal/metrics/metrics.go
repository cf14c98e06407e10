// Package metrics implements Prometheus metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"firestige.xyz/zerg/internal/core"
)

// Directions of a run, used as the "direction" label.
const (
	DirectionDecode = "decode"
	DirectionEncode = "encode"
)

// Registry holds the zerg collectors only, so that an exported textfile
// carries no process or runtime series.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// RecordsTotal counts input records read
	RecordsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zerg_records_total",
			Help: "Total number of capture or text records read",
		},
		[]string{"direction"},
	)

	// PacketsTotal counts packets decoded or encoded by zerg type
	PacketsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zerg_packets_total",
			Help: "Total number of zerg packets decoded or encoded",
		},
		[]string{"direction", "type"},
	)

	// SkippedTotal counts records stepped over, by reason class
	SkippedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zerg_skipped_total",
			Help: "Total number of records skipped after a recoverable error",
		},
		[]string{"direction", "reason"},
	)

	// TruncatedTotal counts runs whose input ended inside a record
	TruncatedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zerg_truncated_inputs_total",
			Help: "Total number of inputs that ended inside a record",
		},
		[]string{"direction"},
	)

	// RunDurationSeconds measures whole decode or encode runs
	RunDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zerg_run_duration_seconds",
			Help:    "Duration of decode and encode runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		},
		[]string{"direction"},
	)
)

// Skip reason label values.
const (
	ReasonProtocol    = "protocol"
	ReasonVersion     = "version"
	ReasonUnknownType = "unknown_type"
	ReasonTooShort    = "too_short"
	ReasonRange       = "out_of_range"
	ReasonParse       = "parse"
	ReasonOther       = "other"
)

// Reason classifies a recoverable error into a low-cardinality label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, core.ErrUnsupportedProto):
		return ReasonProtocol
	case errors.Is(err, core.ErrBadVersion):
		return ReasonVersion
	case errors.Is(err, core.ErrUnknownType):
		return ReasonUnknownType
	case errors.Is(err, core.ErrPacketTooShort):
		return ReasonTooShort
	case errors.Is(err, core.ErrValueOutOfRange):
		return ReasonRange
	default:
		return ReasonOther
	}
}

// WriteTextfile writes every zerg series to path in the Prometheus text
// format, for the node exporter textfile collector. The file is replaced
// atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
