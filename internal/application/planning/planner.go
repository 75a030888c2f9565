package planning

import (
	"context"
	"time"

	"github.com/erp/invengine/internal/application/replenishment"
	"github.com/erp/invengine/internal/application/valuation"
	"github.com/erp/invengine/internal/domain/inventory"
	domainreplenishment "github.com/erp/invengine/internal/domain/replenishment"
	domainvaluation "github.com/erp/invengine/internal/domain/valuation"
	"github.com/erp/invengine/internal/infrastructure/logger"
	"github.com/erp/invengine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pipeline names used in metrics
const (
	PipelineValuation     = "valuation"
	PipelineReplenishment = "replenishment"
	PipelinePlan          = "plan"
)

// PlanRequest is one snapshot to plan against
type PlanRequest struct {
	Items      []inventory.InventoryItem    `json:"items"`
	Valuations []valuation.ValuationRequest `json:"valuations"`
}

// PlanResult is the combined output of one planning run
type PlanResult struct {
	RunID             string                               `json:"run_id"`
	Valuations        []domainvaluation.Valuation          `json:"valuations"`
	ValuationFailures []valuation.ValuationFailure         `json:"valuation_failures"`
	Alerts            []*domainreplenishment.LowStockAlert `json:"alerts"`
	Diagnostics       []replenishment.ItemDiagnostic       `json:"diagnostics"`
	Merge             MergeSummary                         `json:"merge"`
	Consolidation     replenishment.ConsolidationResult    `json:"consolidation"`
	GeneratedAt       time.Time                            `json:"generated_at"`
}

// MergeSummary reports how generated alerts lined up with stored state
type MergeSummary struct {
	Carried int `json:"carried"`
	Raised  int `json:"raised"`
	Pruned  int `json:"pruned"`
}

// OpenAlerts returns the number of active or acknowledged alerts
func (r *PlanResult) OpenAlerts() int {
	n := 0
	for _, a := range r.Alerts {
		if a.IsOpen() {
			n++
		}
	}
	return n
}

// Planner runs valuation and replenishment for a snapshot.
// The two pipelines share no state and run concurrently.
type Planner struct {
	valuations   *valuation.ValuationService
	generator    *replenishment.AlertGenerator
	merger       *replenishment.AlertStateMerger
	consolidator *replenishment.Consolidator
	logger       *zap.Logger
	metrics      *telemetry.EngineMetrics
	now          func() time.Time
}

// NewPlanner creates a new Planner
func NewPlanner(
	valuations *valuation.ValuationService,
	generator *replenishment.AlertGenerator,
	merger *replenishment.AlertStateMerger,
	consolidator *replenishment.Consolidator,
	logger *zap.Logger,
) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		valuations:   valuations,
		generator:    generator,
		merger:       merger,
		consolidator: consolidator,
		logger:       logger,
		now:          time.Now,
	}
}

// SetEngineMetrics sets the metrics recorder (optional)
func (p *Planner) SetEngineMetrics(metrics *telemetry.EngineMetrics) {
	p.metrics = metrics
}

// SetClock overrides the time source used for the result timestamp
func (p *Planner) SetClock(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// Run plans the snapshot. Valuation failures are reported in the result;
// only an alert state store failure fails the run.
func (p *Planner) Run(ctx context.Context, req PlanRequest) (result *PlanResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "planner", "run",
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(req.Items)),
		telemetry.WithAttribute("valuation_count", len(req.Valuations)),
	)
	defer span.End()

	runID := uuid.NewString()
	ctx, _ = logger.WithRunID(ctx, p.logger, runID)
	log := logger.L(ctx)

	start := time.Now()
	defer func() {
		p.metrics.RecordPlanDuration(ctx, PipelinePlan, time.Since(start), err)
	}()

	out := &PlanResult{RunID: runID, GeneratedAt: p.now()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pipelineStart := time.Now()
		out.Valuations, out.ValuationFailures = p.valuations.ValuateAll(gctx, req.Valuations)
		p.metrics.RecordPlanDuration(gctx, PipelineValuation, time.Since(pipelineStart), nil)
		return nil
	})

	g.Go(func() error {
		pipelineStart := time.Now()
		perr := p.replenish(gctx, req.Items, out)
		p.metrics.RecordPlanDuration(gctx, PipelineReplenishment, time.Since(pipelineStart), perr)
		return perr
	})

	if err := g.Wait(); err != nil {
		telemetry.RecordError(span, err)
		log.Error("Planning run failed", zap.Error(err))
		return nil, err
	}

	open := out.OpenAlerts()
	p.metrics.RecordOpenAlerts(ctx, open)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAlertCount, len(out.Alerts),
		"open_alert_count", open,
		"suggestion_count", len(out.Consolidation.Suggestions),
	)

	log.Info("Planning run completed",
		zap.Int("valuations", len(out.Valuations)),
		zap.Int("valuation_failures", len(out.ValuationFailures)),
		zap.Int("alerts", len(out.Alerts)),
		zap.Int("open_alerts", open),
		zap.Int("suggestions", len(out.Consolidation.Suggestions)),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// replenish runs generate, merge and consolidate in order. Only the fields
// of out it owns are written.
func (p *Planner) replenish(ctx context.Context, items []inventory.InventoryItem, out *PlanResult) error {
	generated := p.generator.GenerateAlerts(ctx, items)
	out.Diagnostics = generated.Diagnostics

	merged, err := p.merger.Merge(ctx, generated.Alerts, generated.SkippedItemIDs()...)
	if err != nil {
		return err
	}
	out.Alerts = merged.Alerts
	out.Merge = MergeSummary{
		Carried: merged.Carried,
		Raised:  merged.Raised,
		Pruned:  merged.Pruned,
	}

	out.Consolidation = p.consolidator.Consolidate(ctx, merged.Alerts)
	return nil
}
