package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"podium.stt.duration", m.STTDuration},
		{"podium.llm.duration", m.LLMDuration},
		{"podium.analysis.duration", m.AnalysisDuration},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 0.123)
		tc.h.Record(ctx, 0.456)
	}

	rm := collect(t, reader)

	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is not a histogram", tc.name)
			}
			if len(hist.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := hist.DataPoints[0].Count; got != 2 {
				t.Errorf("sample count = %d, want 2", got)
			}
		})
	}
}

// sumFor returns the value of the data point whose attribute key equals value.
func sumFor(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not a sum", name)
	}
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value
		}
	}
	t.Fatalf("metric %q: no data point with %s=%s", name, key, value)
	return 0
}

func TestRecordProviderRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderRequest(ctx, "openai", "llm", "ok", 800*time.Millisecond)
	m.RecordProviderRequest(ctx, "openai", "llm", "ok", time.Second)
	m.RecordProviderRequest(ctx, "openai", "llm", "error", time.Second)
	m.RecordProviderRequest(ctx, "whisper", "stt", "ok", 2*time.Second)

	rm := collect(t, reader)
	if got := sumFor(t, rm, "podium.provider.requests", "kind", "stt"); got != 1 {
		t.Errorf("stt requests = %d, want 1", got)
	}
	if got := sumFor(t, rm, "podium.provider.requests", "status", "error"); got != 1 {
		t.Errorf("error requests = %d, want 1", got)
	}

	stt := findMetric(rm, "podium.stt.duration")
	if stt == nil {
		t.Fatal("stt duration not recorded")
	}
	if got := stt.Data.(metricdata.Histogram[float64]).DataPoints[0].Count; got != 1 {
		t.Errorf("stt samples = %d, want 1", got)
	}
	llmHist := findMetric(rm, "podium.llm.duration")
	if llmHist == nil {
		t.Fatal("llm duration not recorded")
	}
	if got := llmHist.Data.(metricdata.Histogram[float64]).DataPoints[0].Count; got != 3 {
		t.Errorf("llm samples = %d, want 3", got)
	}
}

func TestRecordProviderError(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderError(ctx, "openai", "quota")
	m.RecordProviderError(ctx, "openai", "quota")

	rm := collect(t, reader)
	if got := sumFor(t, rm, "podium.provider.errors", "kind", "quota"); got != 2 {
		t.Errorf("quota errors = %d, want 2", got)
	}
}

func TestRecordAnalysis(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAnalysis(ctx, "primary", "ok", time.Second)
	m.RecordAnalysis(ctx, "fallback", "ok", 10*time.Millisecond)
	m.RecordAnalysis(ctx, "fallback", "ok", 10*time.Millisecond)

	rm := collect(t, reader)
	if got := sumFor(t, rm, "podium.analyses", "provider", "fallback"); got != 2 {
		t.Errorf("fallback analyses = %d, want 2", got)
	}
	if findMetric(rm, "podium.analysis.duration") == nil {
		t.Error("analysis duration not recorded")
	}
}

func TestRecordBreakerTransitionAndSessions(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordBreakerTransition(ctx, "primary", "open")
	m.RecordSessionSaved(ctx, "ok")
	m.RecordSessionSaved(ctx, "error")

	rm := collect(t, reader)
	if got := sumFor(t, rm, "podium.breaker.transitions", "to", "open"); got != 1 {
		t.Errorf("breaker transitions = %d, want 1", got)
	}
	if got := sumFor(t, rm, "podium.sessions.saved", "status", "error"); got != 1 {
		t.Errorf("failed saves = %d, want 1", got)
	}
}

func TestActivePoseStreams(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActivePoseStreams.Add(ctx, 1)
	m.ActivePoseStreams.Add(ctx, 1)
	m.ActivePoseStreams.Add(ctx, -1)

	rm := collect(t, reader)
	met := findMetric(rm, "podium.pose_streams.active")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	if got := sum.DataPoints[0].Value; got != 1 {
		t.Errorf("active streams = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
