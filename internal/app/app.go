// Package app opens the long-lived collaborators shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/finance-assistant/internal/config"
	"github.com/dvloznov/finance-assistant/internal/conversation"
	"github.com/dvloznov/finance-assistant/internal/intent"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/dvloznov/finance-assistant/internal/ledger/inmemory"
	"github.com/dvloznov/finance-assistant/internal/ledger/postgres"
	"github.com/dvloznov/finance-assistant/internal/ledger/snapshot"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Snapshotting pairs the in-memory ledger with the store it is saved to.
type Snapshotting struct {
	Store  *inmemory.Store
	Target snapshot.Store
}

// Save writes the current ledger state to the target.
func (s *Snapshotting) Save(ctx context.Context) error {
	return s.Target.Save(ctx, s.Store.Export())
}

// GCPOptions returns client options for the GCS and BigQuery clients.
func GCPOptions(cfg config.Config) []option.ClientOption {
	if cfg.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
}

// OpenLedger opens the configured ledger. Snapshotting is nil unless the
// in-memory ledger has a snapshot URI. The returned func releases resources.
func OpenLedger(ctx context.Context, cfg config.Config, log zerolog.Logger) (ledger.Ledger, *Snapshotting, func(), error) {
	if cfg.LedgerBackend == config.LedgerPostgres {
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening postgres ledger: %w", err)
		}
		log.Info().Msg("Using postgres ledger")
		return postgres.New(pool), nil, pool.Close, nil
	}

	store := inmemory.NewStore()
	if cfg.SnapshotURI == "" {
		log.Warn().Msg("No SNAPSHOT_URI configured - ledger lives in memory only")
		return store, nil, func() {}, nil
	}

	target, err := snapshot.Open(ctx, cfg.SnapshotURI, GCPOptions(cfg)...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening snapshot store: %w", err)
	}
	state, err := target.Load(ctx)
	if err != nil {
		_ = target.Close()
		return nil, nil, nil, fmt.Errorf("restoring snapshot: %w", err)
	}
	store.Restore(state)
	log.Info().
		Str("uri", cfg.SnapshotURI).
		Int("transactions", len(state.Transactions)).
		Msg("Ledger restored from snapshot")

	closeFn := func() {
		if err := target.Close(); err != nil {
			log.Error().Err(err).Msg("Closing snapshot store")
		}
	}
	return store, &Snapshotting{Store: store, Target: target}, closeFn, nil
}

// SeedIfEmpty adds the demo budgets and goals to a ledger that has neither.
func SeedIfEmpty(ctx context.Context, l ledger.Ledger) error {
	budgets, err := l.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("checking budgets: %w", err)
	}
	goals, err := l.ListGoals(ctx)
	if err != nil {
		return fmt.Errorf("checking goals: %w", err)
	}
	if len(budgets) > 0 || len(goals) > 0 {
		return nil
	}
	return ledger.SeedDemo(ctx, l, time.Now())
}

// BuildResolver returns the configured resolver. Model-backed resolvers are
// wrapped so any failure falls back to the rule classifier.
func BuildResolver(ctx context.Context, cfg config.Config, log zerolog.Logger) (intent.Resolver, error) {
	rules := intent.NewRuleClassifier(nil)
	resolverLog := logger.Component(log, "intent")

	switch cfg.ResolverBackend {
	case config.ResolverGemini:
		client, err := intent.NewGeminiClient(ctx)
		if err != nil {
			return nil, err
		}
		primary := intent.NewGeminiResolver(client.Models, cfg.GeminiModel)
		return intent.NewFallbackResolver(primary, rules, cfg.ResolverTimeout, resolverLog), nil
	case config.ResolverOpenAI:
		primary := intent.NewChatCompletionsResolver(&http.Client{Timeout: cfg.ResolverTimeout}, intent.ChatCompletionsConfig{
			BaseURL:     cfg.OpenAIBaseURL,
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			ContentPath: cfg.OpenAIContentPath,
		})
		return intent.NewFallbackResolver(primary, rules, cfg.ResolverTimeout, resolverLog), nil
	default:
		return rules, nil
	}
}

// BuildTranscript returns a daily markdown transcript when a directory is set.
func BuildTranscript(cfg config.Config) (conversation.Transcript, error) {
	if cfg.TranscriptDir == "" {
		return conversation.NewMemoryTranscript(nil), nil
	}
	t, err := conversation.NewDailyFileTranscript(cfg.TranscriptDir, nil)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	return t, nil
}
