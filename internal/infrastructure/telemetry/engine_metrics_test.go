package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/invengine/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func TestNewEngineMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewEngineMetrics(telemetry.EngineMetricsConfig{Logger: zap.NewNop()})
	require.Error(t, err)
	assert.Nil(t, m)
	assert.Equal(t, "NewEngineMetrics: meter cannot be nil", err.Error())
}

func TestNewEngineMetrics_Noop(t *testing.T) {
	m, err := telemetry.NewEngineMetrics(telemetry.EngineMetricsConfig{
		Meter: noop.NewMeterProvider().Meter("test"),
	})
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordReceipt(ctx, "WH-1")
		m.RecordConsumption(ctx, "fifo", decimal.NewFromInt(70))
		m.RecordPlanDuration(ctx, "full", time.Second, nil)
	})
}

func TestEngineMetrics_NilReceiver(t *testing.T) {
	var m *telemetry.EngineMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordReceipt(ctx, "WH-1")
		m.RecordConsumption(ctx, "fifo", decimal.NewFromInt(1))
		m.RecordInsufficientStock(ctx, "WH-1")
		m.RecordValuation(ctx, "fifo", time.Millisecond, nil)
		m.RecordAlertsGenerated(ctx, "critical", 1)
		m.RecordDiagnostics(ctx, "untracked", 1)
		m.RecordSuggestions(ctx, 1, 1)
		m.RecordPlanDuration(ctx, "full", time.Millisecond, nil)
		m.RecordOpenAlerts(ctx, 3)
	})
}

func TestEngineMetrics_Records(t *testing.T) {
	reader, mp := setupManualMeter(t)
	m, err := telemetry.NewEngineMetrics(telemetry.EngineMetricsConfig{Meter: mp.Meter("test")})
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordConsumption(ctx, "fifo", decimal.NewFromInt(70))
	m.RecordConsumption(ctx, "fifo", decimal.RequireFromString("10.5"))
	m.RecordAlertsGenerated(ctx, "critical", 2)
	m.RecordAlertsGenerated(ctx, "warning", 0)
	m.RecordSuggestions(ctx, 3, 1)
	m.RecordValuation(ctx, "lifo", time.Millisecond, errors.New("boom"))
	m.RecordOpenAlerts(ctx, 5)

	got := collect(t, reader)

	consumptions := got["invengine_consumptions_total"].Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(2), consumptions.DataPoints[0].Value)

	cost := got["invengine_consumed_cost_total"].Data.(metricdata.Sum[float64])
	assert.InDelta(t, 80.5, cost.DataPoints[0].Value, 1e-9)

	alerts := got["invengine_alerts_generated_total"].Data.(metricdata.Sum[int64])
	require.Len(t, alerts.DataPoints, 1)
	assert.Equal(t, int64(2), alerts.DataPoints[0].Value)

	suggestions := got["invengine_suggestions_generated_total"].Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(3), suggestions.DataPoints[0].Value)

	valuation := got["invengine_valuation_duration_seconds"].Data.(metricdata.Histogram[float64])
	outcome, ok := valuation.DataPoints[0].Attributes.Value(telemetry.AttrOutcome)
	require.True(t, ok)
	assert.Equal(t, telemetry.OutcomeFailure, outcome.AsString())

	open := got["invengine_open_alerts"].Data.(metricdata.Gauge[int64])
	assert.Equal(t, int64(5), open.DataPoints[0].Value)
}
