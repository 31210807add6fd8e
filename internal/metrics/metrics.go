// Package metrics exposes lobby and game counters to prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tictactoe"

// Collector records lobby and game metrics.
type Collector struct {
	connections     prometheus.Counter
	disconnections  prometheus.Counter
	onlineUsers     prometheus.Gauge
	gamesStarted    prometheus.Counter
	movesApplied    prometheus.Counter
	movesRejected   *prometheus.CounterVec
	gamesFinished   *prometheus.CounterVec
	sessionDuration prometheus.Histogram
}

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Accepted lobby connections.",
		}),
		disconnections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disconnections_total",
			Help:      "Closed lobby connections.",
		}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Users with an open session.",
		}),
		gamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games created from accepted challenges.",
		}),
		movesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_applied_total",
			Help:      "Moves written to a board.",
		}),
		movesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_rejected_total",
			Help:      "Moves rejected by reason.",
		}, []string{"reason"}),
		gamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that reached a terminal state by outcome.",
		}, []string{"outcome"}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Total connected time of a user at logout.",
			Buckets:   []float64{10, 30, 60, 300, 900, 1800, 3600, 7200},
		}),
	}

	reg.MustRegister(
		c.connections,
		c.disconnections,
		c.onlineUsers,
		c.gamesStarted,
		c.movesApplied,
		c.movesRejected,
		c.gamesFinished,
		c.sessionDuration,
	)

	return c
}

func (c *Collector) RecordConnect() {
	c.connections.Inc()
}

func (c *Collector) RecordDisconnect() {
	c.disconnections.Inc()
}

func (c *Collector) SetOnlineUsers(count int) {
	c.onlineUsers.Set(float64(count))
}

func (c *Collector) RecordGameStarted() {
	c.gamesStarted.Inc()
}

func (c *Collector) RecordMoveApplied() {
	c.movesApplied.Inc()
}

func (c *Collector) RecordMoveRejected(reason string) {
	c.movesRejected.WithLabelValues(reason).Inc()
}

// RecordGameFinished counts a terminal game; outcome is "decided" or "drawn".
func (c *Collector) RecordGameFinished(outcome string) {
	c.gamesFinished.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveSessionDuration(duration time.Duration) {
	c.sessionDuration.Observe(duration.Seconds())
}

// Handler returns the prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
