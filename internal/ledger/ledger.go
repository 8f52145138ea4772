// Package ledger defines the authoritative store of transactions, budgets,
// goals and notifications.
package ledger

import (
	"context"
	"errors"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an ID does not exist.
var ErrNotFound = errors.New("ledger: not found")

// ErrDuplicate is returned when a goal name is already taken (case-insensitive).
var ErrDuplicate = errors.New("ledger: already exists")

// Ledger owns the lifetime of every financial record.
// Implementations serialize mutations so running totals never lose updates.
type Ledger interface {
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	AppendTransaction(ctx context.Context, draft domain.TransactionDraft) (domain.Transaction, error)

	ListBudgets(ctx context.Context) ([]domain.Budget, error)
	AppendBudget(ctx context.Context, b domain.Budget) (domain.Budget, error)
	// UpdateBudgetSpend adds delta to the budget's running total and returns the budget after the change.
	UpdateBudgetSpend(ctx context.Context, id int64, delta decimal.Decimal) (domain.Budget, error)

	ListGoals(ctx context.Context) ([]domain.Goal, error)
	AppendGoal(ctx context.Context, g domain.Goal) (domain.Goal, error)
	// UpdateGoalSaved adds delta to the saved amount and returns the goal after the change.
	UpdateGoalSaved(ctx context.Context, id int64, delta decimal.Decimal) (domain.Goal, error)

	AppendNotification(ctx context.Context, typ domain.NotificationType, title, message string) (domain.Notification, error)
	// ListNotifications returns notifications newest first.
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error

	TotalIncome(ctx context.Context) (decimal.Decimal, error)
	TotalExpense(ctx context.Context) (decimal.Decimal, error)
}

// Summarize builds the financial summary from the ledger.
func Summarize(ctx context.Context, l Ledger) (domain.FinancialSummary, error) {
	txs, err := l.ListTransactions(ctx)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	income, err := l.TotalIncome(ctx)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	expense, err := l.TotalExpense(ctx)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	budgets, err := l.ListBudgets(ctx)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	goals, err := l.ListGoals(ctx)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	return domain.FinancialSummary{
		TotalBalance:      income.Sub(expense),
		TotalIncome:       income,
		TotalExpense:      expense,
		TransactionsCount: len(txs),
		Budgets:           budgets,
		Goals:             goals,
	}, nil
}
