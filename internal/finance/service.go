// Package finance is the single write path into the ledger. Every mutation
// that should be observed by the notification rules goes through Service.
package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/events"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Service records transactions and goal contributions and publishes the
// resulting events.
type Service struct {
	ledger ledger.Ledger
	bus    events.Publisher
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. bus may be nil when no rules are wired.
func NewService(l ledger.Ledger, bus events.Publisher, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{ledger: l, bus: bus, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger exposes the underlying ledger for reads.
func (s *Service) Ledger() ledger.Ledger {
	return s.ledger
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// RecordTransaction appends a transaction, bumps the running spend of the
// first budget whose category matches an expense, and publishes
// transaction.created.
func (s *Service) RecordTransaction(ctx context.Context, draft domain.TransactionDraft) (domain.Transaction, error) {
	draft.Amount = draft.Amount.Abs()
	draft.Category = strings.TrimSpace(draft.Category)
	if draft.Category == "" {
		if draft.Kind == domain.KindIncome {
			draft.Category = domain.IncomeCategory
		} else {
			draft.Category = domain.DefaultExpenseCategory
		}
	}
	if draft.Date.IsZero() {
		draft.Date = domain.Day(s.now())
	}
	if err := draft.Validate(); err != nil {
		return domain.Transaction{}, fmt.Errorf("RecordTransaction: %w", err)
	}

	tx, err := s.ledger.AppendTransaction(ctx, draft)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("RecordTransaction: appending: %w", err)
	}

	if tx.Kind == domain.KindExpense {
		if err := s.bumpBudget(ctx, tx); err != nil {
			return tx, fmt.Errorf("RecordTransaction: %w", err)
		}
	}

	s.publish(ctx, domain.EventTransactionCreated, map[string]any{domain.PayloadTransaction: tx})
	return tx, nil
}

func (s *Service) bumpBudget(ctx context.Context, tx domain.Transaction) error {
	budgets, err := s.ledger.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("listing budgets: %w", err)
	}
	b, ok := domain.FindBudgetByCategory(budgets, tx.Category)
	if !ok {
		return nil
	}
	if _, err := s.ledger.UpdateBudgetSpend(ctx, b.ID, tx.Amount); err != nil {
		return fmt.Errorf("updating budget %d: %w", b.ID, err)
	}
	return nil
}

// ContributeToGoal adds amount to a goal's saved total.
func (s *Service) ContributeToGoal(ctx context.Context, goalID int64, amount decimal.Decimal) (domain.Goal, error) {
	if !amount.IsPositive() {
		return domain.Goal{}, fmt.Errorf("ContributeToGoal: amount must be positive, got %s", amount)
	}
	g, err := s.ledger.UpdateGoalSaved(ctx, goalID, amount)
	if err != nil {
		return domain.Goal{}, fmt.Errorf("ContributeToGoal: goal %d: %w", goalID, err)
	}
	s.publish(ctx, domain.EventLedgerChanged, map[string]any{domain.PayloadGoal: g})
	return g, nil
}

// AddBudget validates and stores a budget.
func (s *Service) AddBudget(ctx context.Context, b domain.Budget) (domain.Budget, error) {
	if b.AlertThreshold.IsZero() {
		b.AlertThreshold = decimal.NewFromFloat(0.8)
	}
	if err := b.Validate(); err != nil {
		return domain.Budget{}, fmt.Errorf("AddBudget: %w", err)
	}
	created, err := s.ledger.AppendBudget(ctx, b)
	if err != nil {
		return domain.Budget{}, fmt.Errorf("AddBudget: %w", err)
	}
	s.publish(ctx, domain.EventLedgerChanged, map[string]any{domain.PayloadBudget: created})
	return created, nil
}

// AddGoal validates and stores a goal.
func (s *Service) AddGoal(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	if err := g.Validate(); err != nil {
		return domain.Goal{}, fmt.Errorf("AddGoal: %w", err)
	}
	created, err := s.ledger.AppendGoal(ctx, g)
	if err != nil {
		return domain.Goal{}, fmt.Errorf("AddGoal: %w", err)
	}
	s.publish(ctx, domain.EventLedgerChanged, map[string]any{domain.PayloadGoal: created})
	return created, nil
}

// Summary returns the current financial summary.
func (s *Service) Summary(ctx context.Context) (domain.FinancialSummary, error) {
	sum, err := ledger.Summarize(ctx, s.ledger)
	if err != nil {
		return domain.FinancialSummary{}, fmt.Errorf("Summary: %w", err)
	}
	return sum, nil
}

// CheckGoalsDue publishes goal.check_due.
func (s *Service) CheckGoalsDue(ctx context.Context) []events.Outcome {
	return s.publish(ctx, domain.EventGoalCheckDue, nil)
}

// DailyCheck publishes daily.check.
func (s *Service) DailyCheck(ctx context.Context) []events.Outcome {
	return s.publish(ctx, domain.EventDailyCheck, nil)
}

func (s *Service) publish(ctx context.Context, name string, payload map[string]any) []events.Outcome {
	if s.bus == nil {
		return nil
	}
	outcomes := s.bus.Publish(ctx, name, payload)
	for _, o := range outcomes {
		if o.Err != nil {
			s.log.Warn().Err(o.Err).Str("event", name).Str("handler", o.Handler).Msg("event handler failed")
		}
	}
	return outcomes
}
