// Package metrics exposes connection and frame counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bft-labs/carcast/internal/ports"
)

// Namespace prefixes every carcast metric.
const Namespace = "carcast"

// Collector implements ports.ConnObserver by updating Prometheus metrics.
type Collector struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	closedTotal       *prometheus.CounterVec
	framesTotal       prometheus.Counter
	bytesTotal        prometheus.Counter
	writeDuration     prometheus.Histogram
	acceptErrors      prometheus.Counter
}

// NewCollector registers the carcast metrics with reg.
// Registering twice with the same registerer panics, as with promauto.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "connections_active",
			Help:      "Number of client connections with a running send loop",
		}),
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections",
		}),
		closedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_closed_total",
			Help:      "Total number of closed client connections by reason",
		}, []string{"reason"}),
		framesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_sent_total",
			Help:      "Total number of frames written to clients",
		}),
		bytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_sent_total",
			Help:      "Total number of bytes written to clients, prefixes included",
		}),
		writeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "frame_write_duration_seconds",
			Help:      "Time spent writing a single frame to the socket",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		acceptErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "accept_errors_total",
			Help:      "Total number of failed accepts on the listening socket",
		}),
	}
}

func (c *Collector) OnConnectionOpened(string) {
	c.connectionsTotal.Inc()
	c.connectionsActive.Inc()
}

func (c *Collector) OnFrameSent(_ string, n int, took time.Duration) {
	c.framesTotal.Inc()
	c.bytesTotal.Add(float64(n))
	c.writeDuration.Observe(took.Seconds())
}

func (c *Collector) OnConnectionClosed(_ string, _ int, cause error) {
	c.connectionsActive.Dec()
	reason := "shutdown"
	if cause != nil {
		reason = "error"
	}
	c.closedTotal.WithLabelValues(reason).Inc()
}

func (c *Collector) OnAcceptError(error) {
	c.acceptErrors.Inc()
}

var _ ports.ConnObserver = (*Collector)(nil)
