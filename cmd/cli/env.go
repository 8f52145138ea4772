package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/dvloznov/finance-assistant/internal/agent"
	"github.com/dvloznov/finance-assistant/internal/app"
	"github.com/dvloznov/finance-assistant/internal/config"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/events"
	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/dvloznov/finance-assistant/internal/notify"
	"github.com/dvloznov/finance-assistant/internal/rag"
	"github.com/dvloznov/finance-assistant/internal/report"
	"github.com/rs/zerolog"
)

// commonFlags are shared by every command that opens the ledger.
type commonFlags struct {
	envFile string
	plain   bool
}

func (c *commonFlags) register(f *flag.FlagSet) {
	f.StringVar(&c.envFile, "env", ".env", "Optional .env file to load before reading the environment")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown instead of rendering it for the terminal")
}

// env is the assistant assembled for a single CLI invocation.
type env struct {
	cfg     config.Config
	log     zerolog.Logger
	svc     *finance.Service
	bus     *events.Bus
	snap    *app.Snapshotting
	closeFn func()
	out     io.Writer
	render  func(string) string
}

// alertPrinter writes alerts raised during a command to stderr.
type alertPrinter struct {
	out io.Writer
}

func (p alertPrinter) Send(alerts []domain.Alert) {
	for _, a := range alerts {
		fmt.Fprintf(p.out, "[%s] %s\n", a.Title, a.Message)
	}
}

func openEnv(ctx context.Context, c commonFlags) (*env, error) {
	cfg, err := config.Load(c.envFile)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	// The CLI talks to a terminal; only problems are worth logging.
	log = log.Level(zerolog.WarnLevel)

	l, snap, closeFn, err := app.OpenLedger(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.SeedDemo {
		if err := app.SeedIfEmpty(ctx, l); err != nil {
			closeFn()
			return nil, err
		}
	}

	bus := events.NewBus(alertPrinter{out: os.Stderr}, log)
	notify.NewEngine(l, log).Register(bus)

	e := &env{
		cfg:     cfg,
		log:     log,
		svc:     finance.NewService(l, bus, log),
		bus:     bus,
		snap:    snap,
		closeFn: closeFn,
		out:     os.Stdout,
		render:  func(s string) string { return s },
	}
	if !c.plain {
		renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
		if err != nil {
			closeFn()
			return nil, fmt.Errorf("creating markdown renderer: %w", err)
		}
		e.render = func(s string) string {
			out, err := renderer.Render(s)
			if err != nil {
				return s
			}
			return out
		}
	}
	return e, nil
}

// newAgent builds the conversational pipeline over the env's ledger.
func (e *env) newAgent(ctx context.Context) (*agent.Agent, error) {
	resolver, err := app.BuildResolver(ctx, e.cfg, e.log)
	if err != nil {
		return nil, err
	}
	transcript, err := app.BuildTranscript(e.cfg)
	if err != nil {
		return nil, err
	}
	docs := rag.NewDocStore()
	syncer := rag.NewSyncer(docs, e.svc.Ledger())
	if _, err := syncer.Sync(ctx); err != nil {
		return nil, err
	}
	syncer.Register(e.bus)
	return agent.New(resolver, e.svc, transcript, docs, agent.Config{HistoryLimit: e.cfg.TranscriptLimit}, e.log), nil
}

func (e *env) printMarkdown(md string) {
	fmt.Fprint(e.out, e.render(md))
}

func (e *env) printAlerts(title string, alerts []domain.Alert) {
	e.printMarkdown(report.AlertsMarkdown(title, alerts))
}

// close persists the in-memory ledger when snapshots are configured.
func (e *env) close(ctx context.Context) {
	if e.snap != nil {
		if err := e.snap.Save(ctx); err != nil {
			e.log.Error().Err(err).Msg("Saving snapshot")
		}
	}
	e.closeFn()
}
