// Package telemetry provides Prometheus metrics, OpenTelemetry tracing setup,
// and correlation-id aware logging helpers.
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
	TicksTotal          prometheus.Counter
	FetchFailures       prometheus.Counter
	WentLiveTotal       prometheus.Counter
	WentOfflineTotal    prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter

	// Histograms (seconds)
	TickDuration prometheus.Observer

	// Gauges
	TrackedGauge prometheus.Gauge
	LiveGauge    prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		TicksTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "herald_ticks_total", Help: "Number of poll-and-diff ticks executed"})
		FetchFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "herald_fetch_failures_total", Help: "Number of per-streamer status fetches that failed (treated as offline for the tick)"})
		WentLiveTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "herald_went_live_total", Help: "Number of offline-to-live transitions detected"})
		WentOfflineTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "herald_went_offline_total", Help: "Number of live-to-offline transitions detected"})
		NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "herald_notifications_sent_total", Help: "Number of go-live notifications delivered to Discord"})
		NotificationsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "herald_notifications_failed_total", Help: "Number of go-live notifications that failed to send"})
		TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "herald_tick_duration_seconds", Help: "Tick duration seconds", Buckets: prometheus.DefBuckets})
		TrackedGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "herald_tracked_streamers", Help: "Current number of tracked streamers"})
		LiveGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "herald_live_streamers", Help: "Current number of streamers believed live"})
	})
}

// CountTick records one completed tick and its duration.
func CountTick(d time.Duration) {
	if TicksTotal != nil {
		TicksTotal.Inc()
	}
	if TickDuration != nil {
		TickDuration.Observe(d.Seconds())
	}
}

// CountFetchFailure records one failed status fetch.
func CountFetchFailure() {
	if FetchFailures != nil {
		FetchFailures.Inc()
	}
}

// CountTransition records one detected transition.
func CountTransition(live bool) {
	if live {
		if WentLiveTotal != nil {
			WentLiveTotal.Inc()
		}
	} else if WentOfflineTotal != nil {
		WentOfflineTotal.Inc()
	}
}

// CountNotification records one notification send attempt.
func CountNotification(ok bool) {
	if ok {
		if NotificationsSent != nil {
			NotificationsSent.Inc()
		}
	} else if NotificationsFailed != nil {
		NotificationsFailed.Inc()
	}
}

// SetTracked records the current tracked-streamer count.
func SetTracked(n int) {
	if TrackedGauge != nil {
		TrackedGauge.Set(float64(n))
	}
}

// SetLive records the current live-streamer count.
func SetLive(n int) {
	if LiveGauge != nil {
		LiveGauge.Set(float64(n))
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with a corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
