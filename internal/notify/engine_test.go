package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/events"
	"github.com/dvloznov/finance-assistant/internal/ledger/inmemory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var today = time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) (*Engine, *inmemory.Store) {
	t.Helper()
	store := inmemory.NewStore(inmemory.WithClock(func() time.Time { return today }))
	return NewEngine(store, zerolog.Nop(), WithClock(func() time.Time { return today })), store
}

func addIncome(t *testing.T, s *inmemory.Store, amount int64) {
	t.Helper()
	_, err := s.AppendTransaction(context.Background(), domain.TransactionDraft{
		Amount: decimal.NewFromInt(amount), Category: "income", Date: today, Kind: domain.KindIncome,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func types(alerts []domain.Alert) []domain.NotificationType {
	var out []domain.NotificationType
	for _, a := range alerts {
		out = append(out, a.Type)
	}
	return out
}

func has(alerts []domain.Alert, typ domain.NotificationType) bool {
	for _, a := range alerts {
		if a.Type == typ {
			return true
		}
	}
	return false
}

func TestOnTransactionCreated_LargeTransaction(t *testing.T) {
	tests := []struct {
		amount int64
		want   bool
	}{
		{600, true},
		{501, true},
		{500, false},
		{499, false},
	}
	for _, tt := range tests {
		e, s := newEngine(t)
		addIncome(t, s, 10000)
		tx := domain.Transaction{ID: 9, Amount: decimal.NewFromInt(tt.amount), Category: "electronics", Date: today, Kind: domain.KindExpense}

		alerts, err := e.OnTransactionCreated(context.Background(), tx)
		if err != nil {
			t.Fatalf("OnTransactionCreated() error = %v", err)
		}
		if got := has(alerts, domain.NotificationLargeTransaction); got != tt.want {
			t.Errorf("amount %d: large alert = %v, want %v", tt.amount, got, tt.want)
		}
	}
}

func TestOnTransactionCreated_LargeIncomeAlsoAlerts(t *testing.T) {
	e, s := newEngine(t)
	addIncome(t, s, 600)
	alerts, _ := e.OnTransactionCreated(context.Background(), domain.Transaction{Amount: decimal.NewFromInt(600), Category: "income", Kind: domain.KindIncome})
	if !has(alerts, domain.NotificationLargeTransaction) {
		t.Errorf("alerts = %v", types(alerts))
	}
}

func TestOnTransactionCreated_BudgetRules(t *testing.T) {
	tests := []struct {
		name          string
		spent         int64
		wantThreshold bool
		wantExceeded  bool
	}{
		{"below threshold", 100, false, false},
		{"at threshold", 160, true, false},
		{"at limit", 200, true, true},
		{"over limit", 250, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := newEngine(t)
			ctx := context.Background()
			addIncome(t, s, 10000)
			b, _ := s.AppendBudget(ctx, domain.Budget{Name: "Groceries", Category: "Groceries", MonthlyLimit: decimal.NewFromInt(200), AlertThreshold: decimal.RequireFromString("0.8")})
			s.UpdateBudgetSpend(ctx, b.ID, decimal.NewFromInt(tt.spent))

			tx := domain.Transaction{Amount: decimal.NewFromInt(10), Category: "groceries", Date: today, Kind: domain.KindExpense}
			alerts, err := e.OnTransactionCreated(ctx, tx)
			if err != nil {
				t.Fatal(err)
			}
			if has(alerts, domain.NotificationBudgetThreshold) != tt.wantThreshold {
				t.Errorf("threshold fired = %v, want %v", !tt.wantThreshold, tt.wantThreshold)
			}
			if has(alerts, domain.NotificationBudgetExceeded) != tt.wantExceeded {
				t.Errorf("exceeded fired = %v, want %v", !tt.wantExceeded, tt.wantExceeded)
			}
		})
	}
}

func TestOnTransactionCreated_BudgetMessages(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()
	addIncome(t, s, 10000)
	b, _ := s.AppendBudget(ctx, domain.Budget{Name: "Dining", Category: "dining", MonthlyLimit: decimal.NewFromInt(200), AlertThreshold: decimal.RequireFromString("0.8")})
	s.UpdateBudgetSpend(ctx, b.ID, decimal.NewFromInt(200))

	e.OnTransactionCreated(ctx, domain.Transaction{Amount: decimal.NewFromInt(20), Category: "dining", Kind: domain.KindExpense})

	list, _ := s.ListNotifications(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	threshold, exceeded := list[1], list[0]
	if threshold.Title != "dining Budget Alert" || threshold.Message != "Your spending has reached $200.00/$200.00 (100%)" {
		t.Errorf("threshold notification = %+v", threshold)
	}
	if exceeded.Title != "dining Budget Exceeded" || exceeded.Message != "You have exceeded your budget of $200.00 for dining!" {
		t.Errorf("exceeded notification = %+v", exceeded)
	}
}

func TestOnTransactionCreated_IncomeSkipsBudgets(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()
	b, _ := s.AppendBudget(ctx, domain.Budget{Name: "Income", Category: "income", MonthlyLimit: decimal.NewFromInt(10), AlertThreshold: decimal.NewFromInt(1)})
	s.UpdateBudgetSpend(ctx, b.ID, decimal.NewFromInt(50))
	addIncome(t, s, 50)

	alerts, _ := e.OnTransactionCreated(ctx, domain.Transaction{Amount: decimal.NewFromInt(50), Category: "income", Kind: domain.KindIncome})
	if len(alerts) != 0 {
		t.Errorf("expected no alerts for income, got %v", types(alerts))
	}
}

func TestOnTransactionCreated_NegativeBalance(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()
	addIncome(t, s, 100)
	s.AppendTransaction(ctx, domain.TransactionDraft{Amount: decimal.NewFromInt(150), Category: "rent", Date: today, Kind: domain.KindExpense})

	alerts, err := e.OnTransactionCreated(ctx, domain.Transaction{Amount: decimal.NewFromInt(150), Category: "rent", Kind: domain.KindExpense})
	if err != nil {
		t.Fatal(err)
	}
	if !has(alerts, domain.NotificationNegativeBalance) {
		t.Fatalf("alerts = %v", types(alerts))
	}
	if alerts[len(alerts)-1].Message != "Your total balance is negative: -$50.00" {
		t.Errorf("message = %q", alerts[len(alerts)-1].Message)
	}
}

func TestGoalDueMessage(t *testing.T) {
	due := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		offset int
		want   string
	}{
		{0, "Goal 'Laptop' is due today (07 Jan)"},
		{1, "Goal 'Laptop' is due tomorrow (07 Jan)"},
		{5, "Goal 'Laptop' is due in 5 days (07 Jan)"},
		{-1, "Goal 'Laptop' was due yesterday (07 Jan)"},
		{-3, "Goal 'Laptop' was due 3 days ago (07 Jan)"},
	}
	for _, tt := range tests {
		if got := GoalDueMessage("Laptop", due, tt.offset); got != tt.want {
			t.Errorf("GoalDueMessage(%d) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}

func TestCheckGoalsDue(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()
	at := func(days int) *time.Time {
		d := domain.Day(today).AddDate(0, 0, days)
		return &d
	}
	for name, due := range map[string]*time.Time{
		"Today":     at(0),
		"Soon":      at(5),
		"Later":     at(6),
		"Yesterday": at(-1),
		"Old":       at(-30),
		"Ancient":   at(-31),
		"Undated":   nil,
	} {
		s.AppendGoal(ctx, domain.Goal{Name: name, TargetAmount: decimal.NewFromInt(100), TargetDate: due})
	}

	alerts, err := e.CheckGoalsDue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, a := range alerts {
		got[strings.TrimPrefix(a.Title, "Goal Due Soon: ")] = a.Message
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 due goals, got %v", got)
	}
	if !strings.Contains(got["Today"], "due today") {
		t.Errorf("Today message = %q", got["Today"])
	}
	if !strings.Contains(got["Soon"], "due in 5 days") {
		t.Errorf("Soon message = %q", got["Soon"])
	}
	if !strings.Contains(got["Yesterday"], "was due yesterday") {
		t.Errorf("Yesterday message = %q", got["Yesterday"])
	}
	if !strings.Contains(got["Old"], "was due 30 days ago") {
		t.Errorf("Old message = %q", got["Old"])
	}
}

func TestCheckCashflowRisk(t *testing.T) {
	e, s := newEngine(t)
	ctx := context.Background()
	s.AppendBudget(ctx, domain.Budget{Name: "Food", Category: "food", MonthlyLimit: decimal.NewFromInt(100), AlertThreshold: decimal.NewFromInt(1)})

	alerts, err := e.CheckCashflowRisk(ctx)
	if err != nil || len(alerts) != 0 {
		t.Fatalf("no spend: alerts = %v, err = %v", alerts, err)
	}

	// 20 per day projects 140 next week, above 75.
	s.AppendTransaction(ctx, domain.TransactionDraft{Amount: decimal.NewFromInt(20), Category: "food", Date: today, Kind: domain.KindExpense})
	alerts, err = e.CheckCashflowRisk(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 || alerts[0].Type != domain.NotificationCashflowRisk {
		t.Fatalf("alerts = %v", types(alerts))
	}
	if alerts[0].Message != "Estimated next week spend $140.00 exceeds 75% of total budgets ($100.00)" {
		t.Errorf("message = %q", alerts[0].Message)
	}
}

type captureSender struct{ alerts []domain.Alert }

func (c *captureSender) Send(a []domain.Alert) { c.alerts = append(c.alerts, a...) }

func TestRegister(t *testing.T) {
	e, s := newEngine(t)
	sender := &captureSender{}
	bus := events.NewBus(sender, zerolog.Nop())
	e.Register(bus)

	addIncome(t, s, 10000)
	tx := domain.Transaction{Amount: decimal.NewFromInt(700), Category: "travel", Kind: domain.KindExpense}
	outcomes := bus.Publish(context.Background(), domain.EventTransactionCreated, map[string]any{domain.PayloadTransaction: tx})

	if len(outcomes) != 1 || outcomes[0].Err != nil {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	if len(sender.alerts) != 1 || sender.alerts[0].Type != domain.NotificationLargeTransaction {
		t.Errorf("sent alerts = %+v", sender.alerts)
	}

	outcomes = bus.Publish(context.Background(), domain.EventTransactionCreated, nil)
	if outcomes[0].Err == nil {
		t.Error("expected an error for an event without a transaction")
	}
}
