package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/shopspring/decimal"
)

// Store is an in-memory ledger. A single RWMutex serializes every mutation,
// so concurrent increments of the same running total are never lost.
// Reads return copies.
type Store struct {
	mu            sync.RWMutex
	transactions  []domain.Transaction
	budgets       []domain.Budget
	goals         []domain.Goal
	notifications []domain.Notification // newest first
	now           func() time.Time

	// One sequence per record kind, matching per-table serials in Postgres.
	txSeq, budgetSeq, goalSeq, notificationSeq int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty in-memory ledger.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromState creates a ledger preloaded with a persisted state.
func NewFromState(state ledger.State, opts ...Option) *Store {
	s := NewStore(opts...)
	s.Restore(state)
	return s
}

// Restore replaces the store contents with state.
func (s *Store) Restore(state ledger.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append([]domain.Transaction(nil), state.Transactions...)
	s.budgets = append([]domain.Budget(nil), state.Budgets...)
	s.goals = cloneGoals(state.Goals)
	s.notifications = append([]domain.Notification(nil), state.Notifications...)

	s.txSeq, s.budgetSeq, s.goalSeq, s.notificationSeq = 0, 0, 0, 0
	for _, t := range s.transactions {
		bump(&s.txSeq, t.ID)
	}
	for _, b := range s.budgets {
		bump(&s.budgetSeq, b.ID)
	}
	for _, g := range s.goals {
		bump(&s.goalSeq, g.ID)
	}
	for _, n := range s.notifications {
		bump(&s.notificationSeq, n.ID)
	}
}

// Export returns a copy of the whole store.
func (s *Store) Export() ledger.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ledger.State{
		Transactions:  append([]domain.Transaction{}, s.transactions...),
		Budgets:       append([]domain.Budget{}, s.budgets...),
		Goals:         cloneGoals(s.goals),
		Notifications: append([]domain.Notification{}, s.notifications...),
	}
}

func bump(seq *int64, id int64) {
	if id > *seq {
		*seq = id
	}
}

// next must be called with the write lock held.
func next(seq *int64) int64 {
	*seq++
	return *seq
}

// ListTransactions implements ledger.Ledger.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Transaction{}, s.transactions...), nil
}

// AppendTransaction implements ledger.Ledger.
func (s *Store) AppendTransaction(ctx context.Context, draft domain.TransactionDraft) (domain.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return domain.Transaction{}, fmt.Errorf("AppendTransaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := domain.Transaction{
		ID:          next(&s.txSeq),
		Amount:      draft.Amount,
		Category:    draft.Category,
		Date:        domain.Day(draft.Date),
		Description: draft.Description,
		Kind:        draft.Kind,
	}
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

// ListBudgets implements ledger.Ledger.
func (s *Store) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Budget{}, s.budgets...), nil
}

// AppendBudget implements ledger.Ledger.
func (s *Store) AppendBudget(ctx context.Context, b domain.Budget) (domain.Budget, error) {
	if err := b.Validate(); err != nil {
		return domain.Budget{}, fmt.Errorf("AppendBudget: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = next(&s.budgetSeq)
	s.budgets = append(s.budgets, b)
	return b, nil
}

// UpdateBudgetSpend implements ledger.Ledger.
func (s *Store) UpdateBudgetSpend(ctx context.Context, id int64, delta decimal.Decimal) (domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.budgets {
		if s.budgets[i].ID == id {
			s.budgets[i].SpentThisMonth = s.budgets[i].SpentThisMonth.Add(delta)
			return s.budgets[i], nil
		}
	}
	return domain.Budget{}, fmt.Errorf("UpdateBudgetSpend: budget %d: %w", id, ledger.ErrNotFound)
}

// ListGoals implements ledger.Ledger.
func (s *Store) ListGoals(ctx context.Context) ([]domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneGoals(s.goals), nil
}

// AppendGoal implements ledger.Ledger.
func (s *Store) AppendGoal(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	if err := g.Validate(); err != nil {
		return domain.Goal{}, fmt.Errorf("AppendGoal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := domain.FindGoalByName(s.goals, g.Name); exists {
		return domain.Goal{}, fmt.Errorf("AppendGoal: goal %q: %w", g.Name, ledger.ErrDuplicate)
	}
	g.ID = next(&s.goalSeq)
	g = cloneGoal(g)
	s.goals = append(s.goals, g)
	return cloneGoal(g), nil
}

// UpdateGoalSaved implements ledger.Ledger.
func (s *Store) UpdateGoalSaved(ctx context.Context, id int64, delta decimal.Decimal) (domain.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.goals {
		if s.goals[i].ID == id {
			s.goals[i].SavedAmount = s.goals[i].SavedAmount.Add(delta)
			return cloneGoal(s.goals[i]), nil
		}
	}
	return domain.Goal{}, fmt.Errorf("UpdateGoalSaved: goal %d: %w", id, ledger.ErrNotFound)
}

// AppendNotification implements ledger.Ledger.
func (s *Store) AppendNotification(ctx context.Context, typ domain.NotificationType, title, message string) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := domain.Notification{
		ID:        next(&s.notificationSeq),
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	s.notifications = append([]domain.Notification{n}, s.notifications...)
	return n, nil
}

// ListNotifications implements ledger.Ledger.
func (s *Store) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Notification{}, s.notifications...), nil
}

// MarkNotificationRead implements ledger.Ledger.
func (s *Store) MarkNotificationRead(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("MarkNotificationRead: notification %d: %w", id, ledger.ErrNotFound)
}

// TotalIncome implements ledger.Ledger.
func (s *Store) TotalIncome(ctx context.Context) (decimal.Decimal, error) {
	return s.total(domain.KindIncome), nil
}

// TotalExpense implements ledger.Ledger.
func (s *Store) TotalExpense(ctx context.Context) (decimal.Decimal, error) {
	return s.total(domain.KindExpense), nil
}

func (s *Store) total(kind domain.Kind) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, t := range s.transactions {
		if t.Kind == kind {
			sum = sum.Add(t.Amount.Abs())
		}
	}
	return sum
}

func cloneGoal(g domain.Goal) domain.Goal {
	if g.TargetDate != nil {
		d := *g.TargetDate
		g.TargetDate = &d
	}
	return g
}

func cloneGoals(goals []domain.Goal) []domain.Goal {
	out := make([]domain.Goal, 0, len(goals))
	for _, g := range goals {
		out = append(out, cloneGoal(g))
	}
	return out
}

// Ensure Store implements the Ledger interface.
var _ ledger.Ledger = (*Store)(nil)
