package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_Record(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	m.RecordSave(ctx, "autosave", 3*time.Millisecond, nil)
	m.RecordSave(ctx, "explicit", time.Millisecond, errors.New("disk full"))
	m.RecordFinalize(ctx, nil)
	m.SessionOpened(ctx)
	m.SessionOpened(ctx)
	m.SessionClosed(ctx)

	got := collect(t, reader)

	saves, ok := got["careplan.draft.saves"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range saves.DataPoints {
		total += dp.Value
	}
	require.Equal(t, int64(2), total)
	require.Len(t, saves.DataPoints, 2)

	hist, ok := got["careplan.draft.save.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 2)

	open, ok := got["careplan.wizard.sessions.open"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, open.DataPoints, 1)
	require.Equal(t, int64(1), open.DataPoints[0].Value)

	finalizes, ok := got["careplan.finalize.count"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Equal(t, int64(1), finalizes.DataPoints[0].Value)
}

func TestSetup_NoEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{ServiceName: "careplan"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
