package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/shopspring/decimal"
)

// These tests need a migrated database; set DATABASE_URL to run them.
func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(ctx, `TRUNCATE transactions, budgets, goals, notifications RESTART IDENTITY`); err != nil {
		t.Fatalf("truncating: %v", err)
	}
	return New(pool)
}

func TestLedger_TransactionsAndTotals(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	tx, err := l.AppendTransaction(ctx, domain.TransactionDraft{
		Amount: decimal.NewFromInt(150), Category: "groceries", Date: time.Now(), Kind: domain.KindExpense,
	})
	if err != nil {
		t.Fatalf("AppendTransaction() error = %v", err)
	}
	if tx.ID == 0 {
		t.Error("expected an assigned ID")
	}

	expense, err := l.TotalExpense(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !expense.Equal(decimal.NewFromInt(150)) {
		t.Errorf("TotalExpense() = %s, want 150", expense)
	}
}

func TestLedger_BudgetSpend(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	b, err := l.AppendBudget(ctx, domain.Budget{
		Name: "Groceries", Category: "groceries",
		MonthlyLimit: decimal.NewFromInt(200), AlertThreshold: decimal.RequireFromString("0.8"),
	})
	if err != nil {
		t.Fatal(err)
	}
	updated, err := l.UpdateBudgetSpend(ctx, b.ID, decimal.NewFromInt(150))
	if err != nil {
		t.Fatal(err)
	}
	if !updated.SpentThisMonth.Equal(decimal.NewFromInt(150)) {
		t.Errorf("SpentThisMonth = %s, want 150", updated.SpentThisMonth)
	}
	if _, err := l.UpdateBudgetSpend(ctx, b.ID+100, decimal.NewFromInt(1)); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLedger_Notifications(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	n, err := l.AppendNotification(ctx, domain.NotificationLargeTransaction, "Large Transaction", "big one")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.MarkNotificationRead(ctx, n.ID); err != nil {
		t.Fatal(err)
	}
	list, err := l.ListNotifications(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || !list[0].Read {
		t.Errorf("unexpected notifications %+v", list)
	}
}

func TestLedger_GoalNamesUnique(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	if _, err := l.AppendGoal(ctx, domain.Goal{Name: "Vacation", TargetAmount: decimal.NewFromInt(2000)}); err != nil {
		t.Fatal(err)
	}
	_, err := l.AppendGoal(ctx, domain.Goal{Name: "vacation", TargetAmount: decimal.NewFromInt(100)})
	if !errors.Is(err, ledger.ErrDuplicate) {
		t.Errorf("AppendGoal() error = %v, want ErrDuplicate", err)
	}
}
