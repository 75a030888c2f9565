package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineMetrics records valuation and replenishment activity.
// A nil *EngineMetrics is valid and records nothing.
type EngineMetrics struct {
	logger *zap.Logger

	layersReceived       *Counter
	consumptions         *Counter
	consumedCost         *FloatCounter
	insufficientStock    *Counter
	valuationDuration    *Histogram
	alertsGenerated      *Counter
	diagnostics          *Counter
	suggestionsGenerated *Counter
	unassignableAlerts   *Counter
	planDuration         *Histogram
	openAlerts           *Gauge
}

// EngineMetricsConfig holds configuration for engine metrics.
type EngineMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewEngineMetrics creates the engine instruments on cfg.Meter.
func NewEngineMetrics(cfg EngineMetricsConfig) (*EngineMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &EngineMetrics{logger: logger}

	var err error
	if m.layersReceived, err = NewCounter(cfg.Meter,
		"invengine_cost_layers_received_total", "Cost layers appended to the ledger", "{layers}"); err != nil {
		return nil, err
	}
	if m.consumptions, err = NewCounter(cfg.Meter,
		"invengine_consumptions_total", "Successful stock consumptions", "{consumptions}"); err != nil {
		return nil, err
	}
	if m.consumedCost, err = NewFloatCounter(cfg.Meter,
		"invengine_consumed_cost_total", "Cost of goods consumed", "{currency}"); err != nil {
		return nil, err
	}
	if m.insufficientStock, err = NewCounter(cfg.Meter,
		"invengine_insufficient_stock_total", "Consumptions rejected for insufficient stock", "{consumptions}"); err != nil {
		return nil, err
	}
	if m.valuationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "invengine_valuation_duration_seconds",
		Description: "Time to value one product",
		Unit:        "s",
		Boundaries:  EngineDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.alertsGenerated, err = NewCounter(cfg.Meter,
		"invengine_alerts_generated_total", "Low stock alerts produced", "{alerts}"); err != nil {
		return nil, err
	}
	if m.diagnostics, err = NewCounter(cfg.Meter,
		"invengine_alert_diagnostics_total", "Inventory items skipped during alert generation", "{items}"); err != nil {
		return nil, err
	}
	if m.suggestionsGenerated, err = NewCounter(cfg.Meter,
		"invengine_suggestions_generated_total", "Purchase order suggestions produced", "{suggestions}"); err != nil {
		return nil, err
	}
	if m.unassignableAlerts, err = NewCounter(cfg.Meter,
		"invengine_unassignable_alerts_total", "Alerts that could not be grouped under a supplier", "{alerts}"); err != nil {
		return nil, err
	}
	if m.planDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "invengine_plan_duration_seconds",
		Description: "Duration of a full planning run",
		Unit:        "s",
		Boundaries:  PlanDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.openAlerts, err = NewGauge(cfg.Meter,
		"invengine_open_alerts", "Open low stock alerts after the last run", "{alerts}"); err != nil {
		return nil, err
	}

	logger.Debug("Engine metrics initialized")
	return m, nil
}

// RecordReceipt counts a received cost layer.
func (m *EngineMetrics) RecordReceipt(ctx context.Context, warehouseID string) {
	if m == nil {
		return
	}
	m.layersReceived.Inc(ctx, AttrWarehouseID.String(warehouseID))
}

// RecordConsumption counts a consumption and adds its cost.
func (m *EngineMetrics) RecordConsumption(ctx context.Context, method string, cost decimal.Decimal) {
	if m == nil {
		return
	}
	m.consumptions.Inc(ctx, AttrCostMethod.String(method))
	m.consumedCost.Add(ctx, cost.InexactFloat64(), AttrCostMethod.String(method))
}

// RecordInsufficientStock counts a rejected consumption.
func (m *EngineMetrics) RecordInsufficientStock(ctx context.Context, warehouseID string) {
	if m == nil {
		return
	}
	m.insufficientStock.Inc(ctx, AttrWarehouseID.String(warehouseID))
}

// RecordValuation records how long one valuation took.
func (m *EngineMetrics) RecordValuation(ctx context.Context, method string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.valuationDuration.RecordDuration(ctx, d, AttrCostMethod.String(method), outcomeAttr(err))
}

// RecordAlertsGenerated counts n alerts of the given severity.
func (m *EngineMetrics) RecordAlertsGenerated(ctx context.Context, severity string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.alertsGenerated.Add(ctx, int64(n), AttrSeverity.String(severity))
}

// RecordDiagnostics counts skipped items by reason.
func (m *EngineMetrics) RecordDiagnostics(ctx context.Context, reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.diagnostics.Add(ctx, int64(n), AttrReason.String(reason))
}

// RecordSuggestions counts suggestions and unassignable alerts from one consolidation.
func (m *EngineMetrics) RecordSuggestions(ctx context.Context, suggestions, unassignable int) {
	if m == nil {
		return
	}
	if suggestions > 0 {
		m.suggestionsGenerated.Add(ctx, int64(suggestions))
	}
	if unassignable > 0 {
		m.unassignableAlerts.Add(ctx, int64(unassignable))
	}
}

// RecordPlanDuration records a planning run.
func (m *EngineMetrics) RecordPlanDuration(ctx context.Context, pipeline string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.planDuration.RecordDuration(ctx, d, AttrPipeline.String(pipeline), outcomeAttr(err))
}

// RecordOpenAlerts records the open alert count.
func (m *EngineMetrics) RecordOpenAlerts(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.openAlerts.Record(ctx, int64(n))
}

func outcomeAttr(err error) attribute.KeyValue {
	if err != nil {
		return AttrOutcome.String(OutcomeFailure)
	}
	return AttrOutcome.String(OutcomeSuccess)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewEngineMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
