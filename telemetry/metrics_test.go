package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	Init() // second call must not re-register (panics on duplicate registration otherwise)
	if EventsReceived == nil || ActiveGroupingsGauge == nil {
		t.Fatal("metrics not initialized")
	}
}

func TestCountersGuardNilBeforeInit(t *testing.T) {
	// These helpers are called from request paths that may run before Init in tests.
	CountEvent("match_created")
	CountIgnored("malformed")
	SetActiveGroupings(3)
}

func TestTimeFunc(t *testing.T) {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_timefunc_seconds", Help: "test"})
	d := TimeFunc(h, func() { time.Sleep(5 * time.Millisecond) })
	if d < 5*time.Millisecond {
		t.Errorf("duration = %v, want >= 5ms", d)
	}
	// nil observer must not panic
	TimeFunc(nil, func() {})
}

func TestCorrelationRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Errorf("GetCorrelation(empty ctx) = %q", got)
	}
	ctx = WithCorrelation(ctx, "corr-1")
	if got := GetCorrelation(ctx); got != "corr-1" {
		t.Errorf("GetCorrelation() = %q", got)
	}
	if l := LoggerWithCorr(ctx); l == nil {
		t.Error("LoggerWithCorr returned nil")
	}
}
