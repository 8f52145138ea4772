package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/cashflow"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/ledger/inmemory"
	"github.com/dvloznov/finance-assistant/internal/tools"
	"github.com/shopspring/decimal"
)

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestValidator(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	store.AppendGoal(ctx, domain.Goal{Name: "Emergency Fund", TargetAmount: decimal.NewFromInt(1000)})
	v := NewValidator(store)

	tests := []struct {
		name   string
		res    domain.IntentResult
		reason string
	}{
		{"transaction ok", domain.IntentResult{Intent: domain.IntentAddTransaction, Entities: domain.Entities{Amount: amount(5)}}, ""},
		{"transaction no amount", domain.IntentResult{Intent: domain.IntentAddTransaction}, "missing amount"},
		{"income no amount", domain.IntentResult{Intent: domain.IntentAddIncome}, "missing amount"},
		{"ability no amount", domain.IntentResult{Intent: domain.IntentCheckSpendingAbility}, "missing amount"},
		{"contribution no goal", domain.IntentResult{Intent: domain.IntentAddGoalContribution, Entities: domain.Entities{Amount: amount(5)}}, "missing goal name"},
		{"contribution unknown goal", domain.IntentResult{Intent: domain.IntentAddGoalContribution, Entities: domain.Entities{Amount: amount(5), GoalName: "Boat"}}, `goal "Boat" not found`},
		{"contribution no amount", domain.IntentResult{Intent: domain.IntentAddGoalContribution, Entities: domain.Entities{GoalName: "emergency fund"}}, "missing amount"},
		{"contribution ok", domain.IntentResult{Intent: domain.IntentAddGoalContribution, Entities: domain.Entities{Amount: amount(5), GoalName: "EMERGENCY FUND"}}, ""},
		{"query needs nothing", domain.IntentResult{Intent: domain.IntentAskBudgetStatus}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, tt.res)
			if tt.reason == "" {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Reason != tt.reason {
				t.Errorf("err = %v, want reason %q", err, tt.reason)
			}
		})
	}
}

func turns(lines ...string) []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, 0, len(lines))
	for i, l := range lines {
		role := domain.RoleUser
		if strings.HasPrefix(l, "A:") {
			role = domain.RoleAssistant
			l = strings.TrimPrefix(l, "A:")
		}
		out = append(out, domain.ConversationTurn{Role: role, Content: l, Timestamp: time.Unix(int64(i), 0)})
	}
	return out
}

func TestDetectFollowUp(t *testing.T) {
	tests := []struct {
		name    string
		message string
		history []domain.ConversationTurn
		intent  domain.Intent
		want    string
	}{
		{
			name:    "quotes latest spending line",
			message: "How much did I spend?",
			history: turns("I spent $20 on coffee", "A:Added transaction #1", "I spent $100 on groceries", "A:Estimated next week spend: $98.00."),
			intent:  domain.IntentAskSpendingSummary,
			want:    `Earlier you said: "I spent $100 on groceries"`,
		},
		{
			name:    "preposition without currency",
			message: "how much was that?",
			history: turns("paid 40 on fuel"),
			intent:  domain.IntentAskSpendingSummary,
			want:    `Earlier you said: "paid 40 on fuel"`,
		},
		{
			name:    "other intent",
			message: "How much did I spend?",
			history: turns("I spent $100 on groceries"),
			intent:  domain.IntentAskBudgetStatus,
		},
		{
			name:    "not a follow-up phrasing",
			message: "give me a spending forecast",
			history: turns("I spent $100 on groceries"),
			intent:  domain.IntentAskSpendingSummary,
		},
		{
			name:    "nothing to quote",
			message: "How much did I spend?",
			history: turns("hello", "How much did I spend on coffee?"),
			intent:  domain.IntentAskSpendingSummary,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectFollowUp(tt.message, tt.history, tt.intent)
			if ok != (tt.want != "") || got != tt.want {
				t.Errorf("DetectFollowUp = %q, %v; want %q", got, ok, tt.want)
			}
		})
	}
}

func TestSynthesize(t *testing.T) {
	day := time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC)
	tx := domain.Transaction{ID: 7, Amount: decimal.NewFromInt(150), Category: "groceries", Date: day, Kind: domain.KindExpense}

	tests := []struct {
		name   string
		tool   string
		result tools.Result
		want   string
	}{
		{"transaction", tools.NameAddTransaction, tools.TransactionResult{Status: tools.Status{OK: true}, Transaction: tx}, "Added transaction #7: $150.00 - groceries on 2025-03-18"},
		{"transaction failed", tools.NameAddTransaction, tools.Fail("missing amount"), "Failed to add transaction: missing amount"},
		{"income", tools.NameAddIncome, tools.TransactionResult{Status: tools.Status{OK: true}, Transaction: tx}, "Added income #7: $150.00 on 2025-03-18"},
		{"no budgets", tools.NameGetBudgetStatus, tools.BudgetStatusResult{Status: tools.Status{OK: true}}, "No budgets available."},
		{
			"budgets", tools.NameGetBudgetStatus,
			tools.BudgetStatusResult{Status: tools.Status{OK: true}, Budgets: []tools.BudgetStatus{
				{Name: "Groceries", Remaining: decimal.NewFromInt(50)},
				{Name: "Dining", Remaining: decimal.NewFromInt(-20)},
			}},
			"Budget status: Groceries: remaining $50.00; Dining: over by $20.00",
		},
		{"no goals", tools.NameGetGoalStatus, tools.GoalStatusResult{Status: tools.Status{OK: true}}, "No goals configured."},
		{
			"goals", tools.NameGetGoalStatus,
			tools.GoalStatusResult{Status: tools.Status{OK: true}, Goals: []tools.GoalStatus{
				{Name: "Vacation", Progress: decimal.NewFromFloat(0.25), Remaining: decimal.NewFromInt(750)},
			}},
			"Goal progress: Vacation: 25% (remaining $750.00)",
		},
		{"no data", tools.NamePredictCashflow, tools.CashflowResult{Status: tools.Status{OK: true}, Projection: cashflow.Projection{NoData: true}, Message: tools.NoDataMessage}, tools.NoDataMessage},
		{
			"projection", tools.NamePredictCashflow,
			tools.CashflowResult{Status: tools.Status{OK: true}, Projection: cashflow.Projection{NextWeek: decimal.NewFromInt(98), Next30: decimal.NewFromInt(420)}},
			"Estimated next week spend: $98.00. Next 30 days: $420.00.",
		},
		{"prediction failed", tools.NamePredictCashflow, tools.Fail(""), "No prediction available."},
		{
			"no budget constraint", tools.NameCheckSpendingAbility,
			tools.SpendingAbilityResult{Status: tools.Status{OK: true}, Category: "travel", Amount: decimal.NewFromInt(5000), Affordable: true},
			"There is no budget for travel, so spending $5,000.00 is not limited.",
		},
		{
			"affordable", tools.NameCheckSpendingAbility,
			tools.SpendingAbilityResult{Status: tools.Status{OK: true}, Category: "dining", Amount: decimal.NewFromInt(30), Affordable: true, HasBudget: true, Budget: "Dining", Headroom: decimal.NewFromInt(50)},
			"Yes, you can spend $30.00 on dining. You'll have $50.00 left in your Dining budget.",
		},
		{
			"over", tools.NameCheckSpendingAbility,
			tools.SpendingAbilityResult{Status: tools.Status{OK: true}, Category: "dining", Amount: decimal.NewFromInt(100), HasBudget: true, Budget: "Dining", Headroom: decimal.NewFromInt(-20)},
			"Spending $100.00 on dining would put you $20.00 over your Dining budget.",
		},
		{"no transactions", tools.NameListTransactions, tools.TransactionListResult{Status: tools.Status{OK: true}}, "You have no transactions yet."},
		{
			"transactions", tools.NameListTransactions,
			tools.TransactionListResult{Status: tools.Status{OK: true}, Transactions: []domain.Transaction{tx}},
			"Here are your recent transactions:\n$150.00 on groceries (2025-03-18)",
		},
		{"unknown tool", tools.NameNone, tools.Fail("unknown intent"), FallbackReply},
		{"nil result", "", nil, FallbackReply},
		{"wrong shape", tools.NameAddTransaction, tools.GoalStatusResult{Status: tools.Status{OK: true}}, "Failed to add transaction: unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Synthesize(tt.tool, tt.result); got != tt.want {
				t.Errorf("Synthesize = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSynthesize_Health(t *testing.T) {
	got := Synthesize(tools.NameFinancialHealth, tools.HealthResult{
		Status:         tools.Status{OK: true},
		SpentThisMonth: decimal.NewFromInt(300),
		AvgDaily:       decimal.NewFromInt(15),
		Balance:        decimal.NewFromInt(-50),
		Budgets:        []tools.BudgetStatus{{Name: "Dining", Remaining: decimal.NewFromInt(-1)}},
		Goals:          []tools.GoalStatus{{Name: "Car", Progress: decimal.NewFromFloat(0.1)}},
	})
	for _, want := range []string{"This month you've spent $300.00", "$15.00", "negative", "Dining", "need more contributions"} {
		if !strings.Contains(got, want) {
			t.Errorf("reply %q missing %q", got, want)
		}
	}
}
