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
	EventsReceived *prometheus.CounterVec
	EventsIgnored  *prometheus.CounterVec

	ChannelsCreated       prometheus.Counter
	ChannelCreateFailures prometheus.Counter
	ChannelsDeleted       prometheus.Counter
	ChannelDeleteFailures prometheus.Counter
	MembersMoved          prometheus.Counter
	MemberMoveFailures    prometheus.Counter

	// Gauges
	ActiveGroupingsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{Name: "faceit_events_received_total", Help: "Webhook events received by kind"}, []string{"kind"})
		EventsIgnored = promauto.NewCounterVec(prometheus.CounterOpts{Name: "faceit_events_ignored_total", Help: "Webhook events dropped without processing"}, []string{"reason"})
		ChannelsCreated = promauto.NewCounter(prometheus.CounterOpts{Name: "discord_channels_created_total", Help: "Voice channels created"})
		ChannelCreateFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "discord_channel_create_failures_total", Help: "Voice channel create calls that failed"})
		ChannelsDeleted = promauto.NewCounter(prometheus.CounterOpts{Name: "discord_channels_deleted_total", Help: "Voice channels deleted"})
		ChannelDeleteFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "discord_channel_delete_failures_total", Help: "Voice channel delete calls that failed"})
		MembersMoved = promauto.NewCounter(prometheus.CounterOpts{Name: "discord_members_moved_total", Help: "Members moved into match channels"})
		MemberMoveFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "discord_member_move_failures_total", Help: "Member moves that failed (usually not connected to voice)"})
		ActiveGroupingsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "faceit_active_groupings", Help: "Currently tracked (match, faction) voice channels"})
	})
}

// CountEvent records a received event by kind, guarding against use before Init.
func CountEvent(kind string) {
	if EventsReceived != nil {
		EventsReceived.WithLabelValues(kind).Inc()
	}
}

// CountIgnored records a dropped event by reason.
func CountIgnored(reason string) {
	if EventsIgnored != nil {
		EventsIgnored.WithLabelValues(reason).Inc()
	}
}

// SetActiveGroupings records the current tracked grouping count.
func SetActiveGroupings(n int) {
	if ActiveGroupingsGauge != nil {
		ActiveGroupingsGauge.Set(float64(n))
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

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
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
