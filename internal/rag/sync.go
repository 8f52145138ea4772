package rag

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/events"
	"github.com/dvloznov/finance-assistant/internal/ledger"
)

// Syncer re-indexes the ledger documents whenever the ledger changes, so
// prompts see current totals rather than the ones from startup.
type Syncer struct {
	docs   *DocStore
	ledger ledger.Ledger
}

// NewSyncer creates a Syncer writing into docs.
func NewSyncer(docs *DocStore, l ledger.Ledger) *Syncer {
	return &Syncer{docs: docs, ledger: l}
}

// Sync refreshes the budget, goal, summary and rule documents.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	n, err := SeedFromLedger(ctx, s.docs, s.ledger)
	if err != nil {
		return 0, fmt.Errorf("Sync: %w", err)
	}
	return n, nil
}

// Register subscribes the syncer to every event that follows a ledger write.
func (s *Syncer) Register(bus *events.Bus) {
	bus.Subscribe(domain.EventTransactionCreated, "rag.sync", s.handle)
	bus.Subscribe(domain.EventLedgerChanged, "rag.sync", s.handle)
}

func (s *Syncer) handle(ctx context.Context, _ domain.Event) (events.Result, error) {
	_, err := s.Sync(ctx)
	return events.Result{}, err
}
