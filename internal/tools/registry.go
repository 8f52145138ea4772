// Package tools fulfils one intent each against the ledger.
//
// Budget spend is recomputed from the transactions on every read here. The
// cached running total on domain.Budget is only consulted by the alert rules.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/dvloznov/finance-assistant/internal/ledger"
)

// Tool names as reported to callers.
const (
	NameAddTransaction       = "add_transaction"
	NameAddIncome            = "add_income"
	NameAddGoalContribution  = "add_goal_contribution"
	NameGetBudgetStatus      = "get_budget_status"
	NameGetGoalStatus        = "get_goal_status"
	NamePredictCashflow      = "predict_cashflow"
	NameCheckSpendingAbility = "check_spending_ability"
	NameListTransactions     = "list_transactions"
	NameFinancialHealth      = "financial_health"
	NameNone                 = "none"
)

// RecentTransactions is how many transactions list_transactions returns.
const RecentTransactions = 5

// Func runs a tool. The error is reserved for ledger failures; a tool that
// cannot fulfil the request returns a failed Result instead.
type Func func(ctx context.Context, ents domain.Entities) (Result, error)

// Tool is a named operation bound to one intent.
type Tool struct {
	Name string
	Run  Func
}

// Registry maps intents to tools.
type Registry struct {
	svc    *finance.Service
	ledger ledger.Ledger
	now    func() time.Time
	tools  map[domain.Intent]Tool
}

// NewRegistry builds the dispatch table over svc.
func NewRegistry(svc *finance.Service) *Registry {
	r := &Registry{svc: svc, ledger: svc.Ledger(), now: svc.Now}
	r.tools = map[domain.Intent]Tool{
		domain.IntentAddTransaction:       {NameAddTransaction, r.addTransaction},
		domain.IntentAddIncome:            {NameAddIncome, r.addIncome},
		domain.IntentAddGoalContribution:  {NameAddGoalContribution, r.addGoalContribution},
		domain.IntentAskBudgetStatus:      {NameGetBudgetStatus, r.budgetStatus},
		domain.IntentAskGoalProgress:      {NameGetGoalStatus, r.goalStatus},
		domain.IntentAskSpendingSummary:   {NamePredictCashflow, r.predictCashflow},
		domain.IntentCheckSpendingAbility: {NameCheckSpendingAbility, r.checkSpendingAbility},
		domain.IntentShowTransactions:     {NameListTransactions, r.listTransactions},
		domain.IntentHealthCheck:          {NameFinancialHealth, r.financialHealth},
	}
	return r
}

// Lookup returns the tool for intent.
func (r *Registry) Lookup(intent domain.Intent) (Tool, bool) {
	t, ok := r.tools[intent]
	return t, ok
}

// Dispatch runs the tool for res.Intent. Intents without a tool yield
// NameNone and a failed result.
func (r *Registry) Dispatch(ctx context.Context, res domain.IntentResult) (string, Result, error) {
	t, ok := r.tools[res.Intent]
	if !ok {
		return NameNone, Fail("unknown intent"), nil
	}
	out, err := t.Run(ctx, res.Entities)
	if err != nil {
		return t.Name, nil, fmt.Errorf("Dispatch: %s: %w", t.Name, err)
	}
	return t.Name, out, nil
}
