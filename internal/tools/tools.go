package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-assistant/internal/cashflow"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/shopspring/decimal"
)

func (r *Registry) addTransaction(ctx context.Context, ents domain.Entities) (Result, error) {
	return r.record(ctx, ents, domain.KindExpense)
}

func (r *Registry) addIncome(ctx context.Context, ents domain.Entities) (Result, error) {
	return r.record(ctx, ents, domain.KindIncome)
}

func (r *Registry) record(ctx context.Context, ents domain.Entities, kind domain.Kind) (Result, error) {
	if ents.Amount == nil {
		return Fail("missing amount"), nil
	}
	category := strings.ToLower(strings.TrimSpace(ents.Category))
	if kind == domain.KindIncome {
		category = domain.IncomeCategory
	} else if category == "" {
		category = domain.DefaultExpenseCategory
	}

	tx, err := r.svc.RecordTransaction(ctx, domain.TransactionDraft{
		Amount:   ents.Amount.Abs(),
		Category: category,
		Date:     r.entityDate(ents.Date),
		Kind:     kind,
	})
	if err != nil {
		return nil, err
	}
	return TransactionResult{Status: succeeded, Transaction: tx}, nil
}

// entityDate parses a YYYY-MM-DD entity, defaulting to today.
func (r *Registry) entityDate(s string) time.Time {
	if s != "" {
		if t, err := domain.ParseDay(s); err == nil {
			return t
		}
	}
	return domain.Day(r.now())
}

func (r *Registry) addGoalContribution(ctx context.Context, ents domain.Entities) (Result, error) {
	if ents.Amount == nil {
		return Fail("missing amount"), nil
	}
	goals, err := r.ledger.ListGoals(ctx)
	if err != nil {
		return nil, err
	}
	g, found := domain.FindGoalByName(goals, ents.GoalName)
	if !found {
		return Fail(fmt.Sprintf("goal %q not found", ents.GoalName)), nil
	}

	amount := ents.Amount.Abs()
	updated, err := r.svc.ContributeToGoal(ctx, g.ID, amount)
	if errors.Is(err, ledger.ErrNotFound) {
		return Fail(fmt.Sprintf("goal %q not found", ents.GoalName)), nil
	}
	if err != nil {
		return nil, err
	}
	return GoalContributionResult{Status: succeeded, Amount: amount, Goal: goalStatus(updated)}, nil
}

func (r *Registry) budgetStatus(ctx context.Context, _ domain.Entities) (Result, error) {
	statuses, err := r.recomputeBudgets(ctx)
	if err != nil {
		return nil, err
	}
	return BudgetStatusResult{Status: succeeded, Budgets: statuses}, nil
}

// recomputeBudgets sums the expenses of each budget's category.
func (r *Registry) recomputeBudgets(ctx context.Context) ([]BudgetStatus, error) {
	budgets, err := r.ledger.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := r.ledger.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent := spentIn(txs, b.Category)
		out = append(out, BudgetStatus{
			ID:        b.ID,
			Name:      b.Name,
			Category:  b.Category,
			Limit:     b.MonthlyLimit,
			Spent:     spent,
			Remaining: b.MonthlyLimit.Sub(spent),
		})
	}
	return out, nil
}

func spentIn(txs []domain.Transaction, category string) decimal.Decimal {
	spent := decimal.Zero
	for _, t := range txs {
		if t.Kind == domain.KindExpense && domain.SameCategory(t.Category, category) {
			spent = spent.Add(t.Amount)
		}
	}
	return spent
}

func (r *Registry) goalStatus(ctx context.Context, _ domain.Entities) (Result, error) {
	goals, err := r.ledger.ListGoals(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GoalStatus, 0, len(goals))
	for _, g := range goals {
		out = append(out, goalStatus(g))
	}
	return GoalStatusResult{Status: succeeded, Goals: out}, nil
}

func (r *Registry) predictCashflow(ctx context.Context, _ domain.Entities) (Result, error) {
	txs, err := r.ledger.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	p := cashflow.Project(txs, r.now())
	if p.NoData {
		return CashflowResult{Status: succeeded, Projection: p, Message: NoDataMessage}, nil
	}
	return CashflowResult{Status: succeeded, Projection: p}, nil
}

func (r *Registry) checkSpendingAbility(ctx context.Context, ents domain.Entities) (Result, error) {
	if ents.Amount == nil {
		return Fail("missing amount"), nil
	}
	amount := ents.Amount.Abs()
	category := strings.ToLower(strings.TrimSpace(ents.Category))
	if category == "" {
		category = domain.DefaultExpenseCategory
	}

	budgets, err := r.ledger.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	b, found := domain.FindBudgetByCategory(budgets, category)
	if !found {
		return SpendingAbilityResult{Status: succeeded, Category: category, Amount: amount, Affordable: true}, nil
	}

	txs, err := r.ledger.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	spent := spentIn(txs, b.Category)
	headroom := b.MonthlyLimit.Sub(spent).Sub(amount)
	return SpendingAbilityResult{
		Status:     succeeded,
		Category:   category,
		Amount:     amount,
		Affordable: !headroom.IsNegative(),
		HasBudget:  true,
		Budget:     b.Name,
		Limit:      b.MonthlyLimit,
		Spent:      spent,
		Headroom:   headroom,
	}, nil
}

func (r *Registry) listTransactions(ctx context.Context, _ domain.Entities) (Result, error) {
	txs, err := r.ledger.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	if len(txs) > RecentTransactions {
		txs = txs[len(txs)-RecentTransactions:]
	}
	return TransactionListResult{Status: succeeded, Transactions: txs}, nil
}

func (r *Registry) financialHealth(ctx context.Context, _ domain.Entities) (Result, error) {
	txs, err := r.ledger.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	budgets, err := r.recomputeBudgets(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := r.goalStatus(ctx, domain.Entities{})
	if err != nil {
		return nil, err
	}
	income, err := r.ledger.TotalIncome(ctx)
	if err != nil {
		return nil, err
	}
	expense, err := r.ledger.TotalExpense(ctx)
	if err != nil {
		return nil, err
	}

	today := domain.Day(r.now())
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	spent := decimal.Zero
	for _, t := range txs {
		if t.Kind == domain.KindExpense && !t.Date.Before(monthStart) && !t.Date.After(today) {
			spent = spent.Add(t.Amount)
		}
	}
	elapsed := decimal.NewFromInt(int64(today.Day()))

	return HealthResult{
		Status:         succeeded,
		SpentThisMonth: spent,
		AvgDaily:       spent.Div(elapsed),
		Balance:        income.Sub(expense),
		Budgets:        budgets,
		Goals:          goals.(GoalStatusResult).Goals,
	}, nil
}
