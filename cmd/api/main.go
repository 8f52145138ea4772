package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-assistant/internal/agent"
	"github.com/dvloznov/finance-assistant/internal/alerts"
	"github.com/dvloznov/finance-assistant/internal/api"
	"github.com/dvloznov/finance-assistant/internal/app"
	"github.com/dvloznov/finance-assistant/internal/config"
	"github.com/dvloznov/finance-assistant/internal/consent"
	"github.com/dvloznov/finance-assistant/internal/events"
	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/notify"
	"github.com/dvloznov/finance-assistant/internal/rag"
	"github.com/dvloznov/finance-assistant/internal/scheduler"
	"github.com/rs/zerolog"
)

func main() {
	// Parse command-line flags
	var (
		envFile  = flag.String("env", ".env", "Optional .env file to load before reading the environment")
		port     = flag.String("port", "", "HTTP server port (overrides PORT)")
		logLevel = flag.String("log-level", "", "Log level (overrides LOG_LEVEL)")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	// Initialize ledger
	l, snap, closeLedger, err := app.OpenLedger(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	if cfg.SeedDemo {
		if err := app.SeedIfEmpty(ctx, l); err != nil {
			return err
		}
	}

	// Initialize alert delivery
	bqSink := alerts.NewBigQuerySink(app.GCPOptions(cfg)...)
	defer bqSink.Close()
	sinks := alerts.SchemeRouter{
		alerts.SchemeHTTP:     alerts.NewWebhookSink(nil),
		alerts.SchemeHTTPS:    alerts.NewWebhookSink(nil),
		alerts.SchemeBigQuery: bqSink,
	}
	if cfg.NotionToken != "" {
		sinks[alerts.SchemeNotion] = alerts.NewNotionSink(alerts.NewNotionClient(cfg.NotionToken))
	} else {
		log.Warn().Msg("No NOTION_TOKEN configured - notion:// alert endpoints are disabled")
	}
	registry := alerts.NewRegistry(sinks.Schemes()...)

	dispatcher := alerts.NewDispatcher(registry, sinks, alerts.NewDeliveryStore(0), alerts.DispatcherConfig{
		Workers:    cfg.AlertWorkers,
		QueueSize:  cfg.AlertQueueSize,
		Timeout:    cfg.AlertTimeout,
		MaxRetries: cfg.AlertMaxRetries,
	}, logger.Component(log, "alerts"))
	// Deliveries outlive the signal context so Stop can drain in-flight work.
	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	defer cancelDispatch()
	if err := dispatcher.Start(dispatchCtx); err != nil {
		return fmt.Errorf("starting alert dispatcher: %w", err)
	}

	// Initialize events, rules and the mutation service
	bus := events.NewBus(dispatcher, logger.Component(log, "events"))
	notify.NewEngine(l, logger.Component(log, "notify")).Register(bus)
	svc := finance.NewService(l, bus, logger.Component(log, "finance"))

	// Initialize the assistant
	resolver, err := app.BuildResolver(ctx, cfg, log)
	if err != nil {
		return err
	}

	transcript, err := app.BuildTranscript(cfg)
	if err != nil {
		return err
	}

	docs := rag.NewDocStore()
	syncer := rag.NewSyncer(docs, l)
	n, err := syncer.Sync(ctx)
	if err != nil {
		return fmt.Errorf("seeding context documents: %w", err)
	}
	syncer.Register(bus)
	log.Info().Int("documents", n).Msg("Context store seeded")

	assistant := agent.New(resolver, svc, transcript, docs, agent.Config{
		HistoryLimit: cfg.TranscriptLimit,
	}, logger.Component(log, "agent"))

	// Schedule periodic checks
	sched := scheduler.New(logger.Component(log, "scheduler"))
	if err := sched.Add(scheduler.JobGoalCheck, cfg.GoalCheckSchedule, scheduler.GoalCheck(svc)); err != nil {
		return err
	}
	if err := sched.Add(scheduler.JobDailyCheck, cfg.DailyCheckSchedule, scheduler.DailyCheck(svc)); err != nil {
		return err
	}
	if snap != nil {
		if err := sched.Add(scheduler.JobSnapshotSave, cfg.SnapshotSchedule, scheduler.SnapshotSave(snap.Store, snap.Target)); err != nil {
			return err
		}
	}
	sched.Start(ctx)

	handler := api.NewRouter(api.Deps{
		Agent:      assistant,
		Service:    svc,
		Registry:   registry,
		Deliveries: dispatcher.Deliveries(),
		Transcript: transcript,
		Docs:       docs,
		Consent:    consent.NewConfig(),

		CORSOrigins: cfg.CORSOrigins,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("ledger", cfg.LedgerBackend).
			Str("resolver", cfg.ResolverBackend).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("serving HTTP: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Scheduler did not stop cleanly")
	}
	if snap != nil {
		if err := sched.Run(shutdownCtx, scheduler.JobSnapshotSave); err != nil {
			log.Error().Err(err).Msg("Final snapshot failed")
		}
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Alert dispatcher did not drain")
	}

	log.Info().Msg("Server exited")
	return nil
}
