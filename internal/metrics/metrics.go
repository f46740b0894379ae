// Package metrics provides the Prometheus instruments of a conversion run.
// Label values are bounded: mode is remux|transcode, outcome is success,
// cancelled or a taxonomy label, kind is a packet disposition.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Packet dispositions counted by PacketsTotal.
const (
	PacketRead      = "read"
	PacketCopied    = "copied"
	PacketEncoded   = "encoded"
	PacketDiscarded = "discarded"
)

var (
	// RunsTotal counts finished runs by mode and outcome.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muxconv_runs_total",
		Help: "Total number of finished conversion runs, by mode and outcome.",
	}, []string{"mode", "outcome"})

	// RunDuration observes wall time per run by mode.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "muxconv_run_duration_seconds",
		Help:    "Wall time of conversion runs, by mode.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
	}, []string{"mode"})

	// PacketsTotal counts packets by disposition.
	PacketsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muxconv_packets_total",
		Help: "Total number of packets handled, by disposition (read/copied/encoded/discarded).",
	}, []string{"kind"})

	// FramesDecoded counts decoded video frames on the re-encode path.
	FramesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "muxconv_frames_decoded_total",
		Help: "Total number of video frames decoded for re-encoding.",
	})

	// MessagesDropped counts messages dropped because the consumer lagged.
	MessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "muxconv_messages_dropped_total",
		Help: "Total number of run messages dropped on a full queue.",
	})

	// RunActive is 1 while a run executes.
	RunActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "muxconv_run_active",
		Help: "Whether a conversion run is currently active (0/1).",
	})
)

// ObserveRun records a finished run.
func ObserveRun(mode, outcome string, elapsed time.Duration) {
	RunsTotal.WithLabelValues(mode, outcome).Inc()
	RunDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// AddPackets adds n packets of disposition kind.
func AddPackets(kind string, n int64) {
	if n > 0 {
		PacketsTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
