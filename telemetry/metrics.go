// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	Ticks          prometheus.Counter
	TickFailures   *prometheus.CounterVec // label: kind
	ItemsMapped    *prometheus.CounterVec // label: renderer
	ActionsSkipped prometheus.Counter
	StreamsEnded   prometheus.Counter
	HubDropped     prometheus.Counter

	// Histograms (seconds)
	TickDuration prometheus.Observer

	// Gauges
	SessionActive  prometheus.Gauge // 1=active,0=unstarted
	HubSubscribers prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		Ticks = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_ticks_total", Help: "Number of chat polling ticks attempted"})
		TickFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "livechat_tick_failures_total", Help: "Number of failed ticks by error kind"}, []string{"kind"})
		ItemsMapped = promauto.NewCounterVec(prometheus.CounterOpts{Name: "livechat_items_total", Help: "Number of chat items emitted by renderer type"}, []string{"renderer"})
		ActionsSkipped = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_actions_skipped_total", Help: "Number of chat actions skipped as malformed"})
		StreamsEnded = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_streams_ended_total", Help: "Number of streams that stopped issuing continuations"})
		HubDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_hub_dropped_total", Help: "Number of chat items dropped for slow subscribers"})
		TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "livechat_tick_duration_seconds", Help: "Tick duration seconds", Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}})
		SessionActive = promauto.NewGauge(prometheus.GaugeOpts{Name: "livechat_session_active", Help: "Chat session active=1 unstarted=0"})
		HubSubscribers = promauto.NewGauge(prometheus.GaugeOpts{Name: "livechat_hub_subscribers", Help: "Current number of live chat subscribers"})
	})
}

// SetSessionActive sets the session gauge to 1 if active else 0.
func SetSessionActive(active bool) {
	if SessionActive == nil {
		return
	}
	if active {
		SessionActive.Set(1)
	} else {
		SessionActive.Set(0)
	}
}

// IncTick counts one tick attempt.
func IncTick() {
	if Ticks != nil {
		Ticks.Inc()
	}
}

// IncTickFailure counts a failed tick under the given error kind.
func IncTickFailure(kind string) {
	if TickFailures != nil {
		TickFailures.WithLabelValues(kind).Inc()
	}
}

// AddItems counts emitted items for one renderer type.
func AddItems(renderer string, n int) {
	if ItemsMapped != nil && n > 0 {
		ItemsMapped.WithLabelValues(renderer).Add(float64(n))
	}
}

// AddSkipped counts skipped actions.
func AddSkipped(n int) {
	if ActionsSkipped != nil && n > 0 {
		ActionsSkipped.Add(float64(n))
	}
}

// IncStreamEnded counts an end of stream.
func IncStreamEnded() {
	if StreamsEnded != nil {
		StreamsEnded.Inc()
	}
}

// IncHubDropped counts one item dropped for a slow subscriber.
func IncHubDropped() {
	if HubDropped != nil {
		HubDropped.Inc()
	}
}

// SetHubSubscribers records the current subscriber count.
func SetHubSubscribers(n int) {
	if HubSubscribers != nil {
		HubSubscribers.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
