// Command planner runs the valuation and replenishment pipelines against a
// JSON snapshot and manages the workflow state of low-stock alerts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/infrastructure/config"
	"github.com/erp/invengine/internal/infrastructure/logger"
	"github.com/erp/invengine/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Commands
const (
	cmdPlan        = "plan"
	cmdAlerts      = "alerts"
	cmdAcknowledge = "ack"
	cmdResolve     = "resolve"
	cmdMarkRead    = "read"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		configPath   string
		snapshotPath string
		layersPath   string
		journalPath  string
		logLevel     string
	)

	fs := flag.NewFlagSet("planner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&configPath, "config", "", "Path to config file (default: ./config.toml if present)")
	fs.StringVar(&snapshotPath, "snapshot", "snapshot.json", "Path to the JSON snapshot (plan only)")
	fs.StringVar(&layersPath, "layers", "", "CSV of additional cost layers (plan only)")
	fs.StringVar(&journalPath, "journal", "", "Append published events to this file as JSON lines (plan and alert workflow commands)")
	fs.StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	fs.Usage = func() { printUsage(fs) }
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cmdArgs := fs.Args()
	if len(cmdArgs) == 0 {
		printUsage(fs)
		return exitUsage
	}
	command := cmdArgs[0]

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return exitError
	}
	defer func() {
		_ = logger.Sync(log)
	}()
	log = logger.Named(log, "planner").With(
		zap.String("env", cfg.App.Env),
		zap.String("command", command),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case cmdPlan:
		err = runPlan(ctx, cfg, log, engineOptions{
			snapshotPath: snapshotPath,
			layersPath:   layersPath,
		}, journalPath, stdout)
	case cmdAlerts:
		err = runAlerts(ctx, cfg, log, stdout)
	case cmdAcknowledge, cmdResolve, cmdMarkRead:
		if len(cmdArgs) < 2 {
			fmt.Fprintf(stderr, "Inventory item id required. Usage: planner %s <inventory-item-id>\n", command)
			return exitUsage
		}
		err = runTransition(ctx, cfg, log, command, cmdArgs[1], journalPath, stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(fs)
		return exitUsage
	}

	if err != nil {
		log.Error("Command failed", zap.Error(err), zap.String("code", shared.ErrorCode(err)))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

func runPlan(ctx context.Context, cfg *config.Config, log *zap.Logger, opts engineOptions, journalPath string, stdout io.Writer) error {
	metrics, shutdown, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer shutdown()

	ctx, log = logger.WithSnapshot(ctx, log, opts.snapshotPath)

	journal, closeJournal, err := openJournal(journalPath)
	if err != nil {
		return err
	}
	defer closeJournal()
	opts.journal = journal

	e, err := newEngine(ctx, cfg, log, metrics, opts)
	if err != nil {
		return err
	}
	defer e.close()

	out, err := e.plan(ctx)
	if err != nil {
		return err
	}

	log.Info("Plan completed",
		zap.String("run_id", out.RunID),
		zap.Int("valuations", len(out.Valuations)),
		zap.Int("alerts", len(out.Alerts)),
		zap.Int("suggestions", len(out.Suggestions)),
		zap.Int("unassignable", len(out.Unassignable)),
	)
	return writeJSON(stdout, out)
}

func runAlerts(ctx context.Context, cfg *config.Config, log *zap.Logger, stdout io.Writer) error {
	e, err := newWorkflowEngine(cfg, log, nil)
	if err != nil {
		return err
	}
	defer e.close()

	states, err := e.alertStates(ctx)
	if err != nil {
		return err
	}
	return writeJSON(stdout, states)
}

func runTransition(ctx context.Context, cfg *config.Config, log *zap.Logger, command, itemID, journalPath string, stdout io.Writer) error {
	journal, closeJournal, err := openJournal(journalPath)
	if err != nil {
		return err
	}
	defer closeJournal()

	e, err := newWorkflowEngine(cfg, log, journal)
	if err != nil {
		return err
	}
	defer e.close()

	state, err := e.transition(ctx, command, itemID)
	if err != nil {
		return err
	}
	return writeJSON(stdout, state)
}

// openJournal opens path for appending. An empty path yields a nil writer.
func openJournal(path string) (io.Writer, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// setupTelemetry starts the tracer and meter providers. The returned
// shutdown flushes both.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telemetry.EngineMetrics, func(), error) {
	tc := cfg.Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsExportInterval,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, fmt.Errorf("init metrics: %w", err)
	}

	shutdown := func() {
		// The run context may already be cancelled
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := errors.Join(mp.Shutdown(sctx), tp.Shutdown(sctx)); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}

	metrics, err := telemetry.NewEngineMetrics(telemetry.EngineMetricsConfig{
		Meter:  mp.Meter("github.com/erp/invengine"),
		Logger: log,
	})
	if err != nil {
		shutdown()
		return nil, nil, fmt.Errorf("init engine metrics: %w", err)
	}
	return metrics, shutdown, nil
}

func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, `Usage: planner [flags] <command> [args]

Commands:
  plan                     Value inventory and plan replenishment for -snapshot
  alerts                   List stored alert workflow states
  ack <inventory-item-id>  Acknowledge the item's alert
  resolve <inventory-item-id>
                           Resolve the item's alert
  read <inventory-item-id> Mark the item's alert as read

Flags:`)
	fs.PrintDefaults()
}
