package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/erp/invengine/internal/application/inventory"
	"github.com/erp/invengine/internal/application/planning"
	"github.com/erp/invengine/internal/application/replenishment"
	"github.com/erp/invengine/internal/application/valuation"
	domainreplenishment "github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/erp/invengine/internal/domain/shared/valueobject"
	"github.com/erp/invengine/internal/infrastructure/cache"
	"github.com/erp/invengine/internal/infrastructure/config"
	"github.com/erp/invengine/internal/infrastructure/event"
	csvimport "github.com/erp/invengine/internal/infrastructure/import"
	"github.com/erp/invengine/internal/infrastructure/persistence"
	strategyimpl "github.com/erp/invengine/internal/infrastructure/strategy"
	"github.com/erp/invengine/internal/infrastructure/telemetry"
	"github.com/erp/invengine/internal/infrastructure/validation"
	"github.com/erp/invengine/internal/interfaces/snapshot"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// engineOptions are the inputs of one invocation beyond the config file
type engineOptions struct {
	snapshotPath string
	layersPath   string    // Optional CSV of additional cost layers
	journal      io.Writer // Optional event journal
}

// engine holds the wired services of one invocation
type engine struct {
	cfg      *config.Config
	log      *zap.Logger
	currency valueobject.Currency
	store    cache.ClosableAlertStateStore
	bus      *event.InMemoryEventBus
	metrics  *telemetry.EngineMetrics
	ledger   *inventory.Ledger
	planner  *planning.Planner
	workflow *replenishment.AlertWorkflow
	snapshot *snapshot.Snapshot

	importResult *csvimport.LayerImportResult
}

// evaluatorConfig maps the engine section onto the reorder evaluator
func evaluatorConfig(cfg config.EngineConfig) replenishment.EvaluatorConfig {
	return replenishment.EvaluatorConfig{
		LeadTimeBufferMultiplier: decimal.NewFromFloat(cfg.LeadTimeBufferMultiplier),
		ExcessPolicy:             replenishment.ExcessPolicy(cfg.ExcessPolicy),
		ExcessMultiplier:         decimal.NewFromFloat(cfg.ExcessMultiplier),
	}
}

// suggestionTerms maps the engine section onto suggestion pricing
func suggestionTerms(cfg config.EngineConfig) domainreplenishment.SuggestionTerms {
	return domainreplenishment.SuggestionTerms{
		TaxRate:            decimal.NewFromFloat(cfg.TaxRate),
		ShippingSurcharge:  decimal.NewFromFloat(cfg.ShippingSurcharge),
		UrgentStockoutDays: decimal.NewFromInt(int64(cfg.UrgentStockoutDays)),
	}
}

// newWorkflowEngine wires only what the alert workflow commands need
func newWorkflowEngine(cfg *config.Config, log *zap.Logger, journal io.Writer) (*engine, error) {
	store, err := cache.NewAlertStateStoreFactory(cfg.AlertState, cfg.Redis,
		cache.WithLogger(log),
	).CreateStore()
	if err != nil {
		return nil, err
	}

	bus := event.NewInMemoryEventBus(log)
	if journal != nil {
		bus.Subscribe(event.NewJournalHandler(journal, event.NewEngineSerializer()))
	}
	workflow := replenishment.NewAlertWorkflow(store, log)
	workflow.SetEventPublisher(bus)

	return &engine{
		cfg:      cfg,
		log:      log,
		currency: valueobject.Currency(cfg.Engine.Currency),
		store:    store,
		bus:      bus,
		workflow: workflow,
	}, nil
}

// newEngine wires the full planning pipeline against the snapshot
func newEngine(ctx context.Context, cfg *config.Config, log *zap.Logger, metrics *telemetry.EngineMetrics, opts engineOptions) (*engine, error) {
	snap, err := snapshot.LoadFile(opts.snapshotPath)
	if err != nil {
		return nil, err
	}
	products, err := snap.Catalog()
	if err != nil {
		return nil, err
	}
	suppliers, err := snap.SupplierDirectory()
	if err != nil {
		return nil, err
	}
	layers, err := snap.Layers()
	if err != nil {
		return nil, err
	}

	e, err := newWorkflowEngine(cfg, log, opts.journal)
	if err != nil {
		return nil, err
	}
	e.metrics = metrics
	e.snapshot = snap

	if opts.layersPath != "" {
		e.importResult, err = importLayers(ctx, opts.layersPath, log)
		if err != nil {
			e.close()
			return nil, err
		}
		layers = append(layers, e.importResult.Layers...)
	}

	// Event handlers
	notifier := replenishment.NewLoggingAlertNotifier(log)
	e.bus.Subscribe(replenishment.NewAlertRaisedHandler(log).WithNotifier(notifier))

	registry, err := strategyimpl.NewRegistryWithDefault(strategy.CostMethod(cfg.Engine.ValuationMethod))
	if err != nil {
		e.close()
		return nil, err
	}

	// Cost layer ledger
	e.ledger = inventory.NewLedger(persistence.NewInMemoryCostLayerStore(), registry, log)
	e.ledger.SetEventPublisher(e.bus)
	e.ledger.SetEngineMetrics(metrics)
	if _, err := e.ledger.Seed(ctx, layers); err != nil {
		e.close()
		return nil, err
	}

	// Valuation
	valuations := valuation.NewValuationService(e.ledger, registry, log)
	valuations.SetEngineMetrics(metrics)

	// Replenishment
	evaluator, err := replenishment.NewReorderEvaluator(evaluatorConfig(cfg.Engine))
	if err != nil {
		e.close()
		return nil, err
	}
	generator := replenishment.NewAlertGenerator(evaluator, products, suppliers, log)
	generator.SetValidator(validation.New())
	generator.SetEngineMetrics(metrics)

	merger := replenishment.NewAlertStateMerger(e.store, log)
	merger.SetEventPublisher(e.bus)
	merger.SetPruneStale(cfg.AlertState.PruneStale)

	consolidator := replenishment.NewConsolidator(suppliers, suggestionTerms(cfg.Engine), log)
	consolidator.SetEngineMetrics(metrics)

	e.planner = planning.NewPlanner(valuations, generator, merger, consolidator, log)
	e.planner.SetEngineMetrics(metrics)
	return e, nil
}

// importLayers reads a cost layer CSV. Row errors are logged and reported in
// the output; the valid rows are still seeded.
func importLayers(ctx context.Context, path string, log *zap.Logger) (*csvimport.LayerImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layer file: %w", err)
	}
	defer f.Close()

	result, err := csvimport.NewLayerImporter(log).Import(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	for _, rowErr := range result.Errors {
		log.Warn("Skipped cost layer row", zap.String("file", path), zap.Error(rowErr))
	}
	return result, nil
}

// plan runs the planner against the snapshot
func (e *engine) plan(ctx context.Context) (*planOutput, error) {
	result, err := e.planner.Run(ctx, e.snapshot.PlanRequest())
	if err != nil {
		return nil, err
	}
	out := newPlanOutput(result, e.currency)
	if e.importResult != nil {
		out.ImportErrors = e.importResult.Errors
	}
	out.HandlerFailures = e.bus.Failures()
	return out, nil
}

// transition applies one alert workflow command
func (e *engine) transition(ctx context.Context, command, itemID string) (*domainreplenishment.AlertState, error) {
	switch command {
	case cmdAcknowledge:
		return e.workflow.Acknowledge(ctx, itemID)
	case cmdResolve:
		return e.workflow.Resolve(ctx, itemID)
	case cmdMarkRead:
		return e.workflow.MarkRead(ctx, itemID)
	default:
		return nil, fmt.Errorf("unknown alert command '%s'", command)
	}
}

// alertStates lists every stored alert state
func (e *engine) alertStates(ctx context.Context) ([]domainreplenishment.AlertState, error) {
	return e.store.List(ctx)
}

func (e *engine) close() {
	if e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		e.log.Warn("Failed to close alert state store", zap.Error(err))
	}
}
