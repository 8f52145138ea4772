package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/events"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/dvloznov/finance-assistant/internal/ledger/inmemory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var now = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	names    []string
	payloads []map[string]any
}

func (p *recordingPublisher) Publish(ctx context.Context, name string, payload map[string]any) []events.Outcome {
	p.names = append(p.names, name)
	p.payloads = append(p.payloads, payload)
	return nil
}

func newService(t *testing.T) (*Service, *inmemory.Store, *recordingPublisher) {
	t.Helper()
	store := inmemory.NewStore()
	pub := &recordingPublisher{}
	return NewService(store, pub, zerolog.Nop(), WithClock(func() time.Time { return now })), store, pub
}

func TestRecordTransaction_ExpenseBumpsBudget(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newService(t)
	b, err := svc.AddBudget(ctx, domain.Budget{Name: "Groceries", Category: "Groceries", MonthlyLimit: decimal.NewFromInt(200)})
	if err != nil {
		t.Fatalf("AddBudget: %v", err)
	}
	if !b.AlertThreshold.Equal(decimal.NewFromFloat(0.8)) {
		t.Errorf("default threshold = %s", b.AlertThreshold)
	}

	tx, err := svc.RecordTransaction(ctx, domain.TransactionDraft{
		Amount: decimal.NewFromInt(-150), Category: "groceries", Kind: domain.KindExpense,
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if !tx.Amount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Amount = %s, want absolute 150", tx.Amount)
	}
	if !tx.Date.Equal(domain.Day(now)) {
		t.Errorf("Date = %v, want today", tx.Date)
	}

	budgets, _ := store.ListBudgets(ctx)
	if !budgets[0].SpentThisMonth.Equal(decimal.NewFromInt(150)) {
		t.Errorf("SpentThisMonth = %s, want 150", budgets[0].SpentThisMonth)
	}

	want := []string{domain.EventLedgerChanged, domain.EventTransactionCreated}
	if len(pub.names) != 2 || pub.names[0] != want[0] || pub.names[1] != want[1] {
		t.Fatalf("published %v, want %v", pub.names, want)
	}
	if _, ok := pub.payloads[0][domain.PayloadBudget].(domain.Budget); !ok {
		t.Errorf("ledger.changed payload = %v", pub.payloads[0])
	}
	got, ok := (domain.Event{Payload: pub.payloads[1]}).TransactionFrom()
	if !ok || got.ID != tx.ID {
		t.Errorf("payload transaction = %+v", got)
	}
}

func TestRecordTransaction_IncomeLeavesBudgets(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	if _, err := svc.AddBudget(ctx, domain.Budget{Name: "Income", Category: "income", MonthlyLimit: decimal.NewFromInt(100)}); err != nil {
		t.Fatal(err)
	}

	tx, err := svc.RecordTransaction(ctx, domain.TransactionDraft{Amount: decimal.NewFromInt(1000), Kind: domain.KindIncome})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if tx.Category != domain.IncomeCategory {
		t.Errorf("Category = %q", tx.Category)
	}
	budgets, _ := store.ListBudgets(ctx)
	if !budgets[0].SpentThisMonth.IsZero() {
		t.Errorf("income touched budget: %s", budgets[0].SpentThisMonth)
	}
}

func TestRecordTransaction_DefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)

	tx, err := svc.RecordTransaction(ctx, domain.TransactionDraft{Amount: decimal.NewFromInt(5), Kind: domain.KindExpense})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if tx.Category != domain.DefaultExpenseCategory {
		t.Errorf("Category = %q, want misc", tx.Category)
	}

	if _, err := svc.RecordTransaction(ctx, domain.TransactionDraft{Amount: decimal.NewFromInt(5), Kind: "TRANSFER"}); err == nil {
		t.Error("expected error for unknown kind")
	}
	if len(pub.names) != 1 {
		t.Errorf("rejected draft published an event: %v", pub.names)
	}
}

func TestContributeToGoal(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService(t)
	g, err := svc.AddGoal(ctx, domain.Goal{Name: "Vacation", TargetAmount: decimal.NewFromInt(1000)})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.ContributeToGoal(ctx, g.ID, decimal.NewFromInt(250))
	if err != nil {
		t.Fatalf("ContributeToGoal: %v", err)
	}
	if !updated.SavedAmount.Equal(decimal.NewFromInt(250)) {
		t.Errorf("SavedAmount = %s", updated.SavedAmount)
	}

	if len(pub.names) != 2 || pub.names[0] != domain.EventLedgerChanged || pub.names[1] != domain.EventLedgerChanged {
		t.Errorf("published %v, want two ledger.changed events", pub.names)
	}

	if _, err := svc.ContributeToGoal(ctx, 999, decimal.NewFromInt(1)); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.ContributeToGoal(ctx, g.ID, decimal.Zero); err == nil {
		t.Error("expected error for zero amount")
	}
}

func TestAddBudget_Invalid(t *testing.T) {
	svc, _, pub := newService(t)
	_, err := svc.AddBudget(context.Background(), domain.Budget{Name: "x", Category: "x", MonthlyLimit: decimal.Zero})
	if err == nil {
		t.Error("expected validation error")
	}
	if len(pub.names) != 0 {
		t.Errorf("rejected budget published %v", pub.names)
	}
}

func TestAddGoal_DuplicateName(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	if _, err := svc.AddGoal(ctx, domain.Goal{Name: "Vacation", TargetAmount: decimal.NewFromInt(1000)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddGoal(ctx, domain.Goal{Name: "vacation", TargetAmount: decimal.NewFromInt(500)}); !errors.Is(err, ledger.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
	goals, _ := store.ListGoals(ctx)
	if len(goals) != 1 {
		t.Errorf("goals stored = %d, want 1", len(goals))
	}
}

func TestPublishWithoutBus(t *testing.T) {
	svc := NewService(inmemory.NewStore(), nil, zerolog.Nop())
	if out := svc.CheckGoalsDue(context.Background()); out != nil {
		t.Errorf("outcomes = %v", out)
	}
}
