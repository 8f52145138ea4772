package rag

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/ledger"
)

// Fixed explanations of the alerting rules.
var ruleDocs = []Document{
	{
		ID:       "rule_budget_threshold",
		Text:     "Budget alerts are triggered when spending reaches the alert threshold (typically 80% of limit). Critical alerts when spending exceeds the budget limit.",
		Metadata: map[string]string{"type": "rule", "name": "budget_threshold"},
	},
	{
		ID:       "rule_transaction_alerts",
		Text:     "Large transactions over $500 trigger notifications. You are also alerted if your balance goes negative.",
		Metadata: map[string]string{"type": "rule", "name": "transaction_alerts"},
	},
	{
		ID:       "rule_goal_due",
		Text:     "Goals due within the next 5 days, or overdue by up to 30 days, trigger a goal due soon reminder.",
		Metadata: map[string]string{"type": "rule", "name": "goal_due"},
	},
}

// SeedFromLedger indexes budgets, goals, the summary and the rule texts.
// Calling it again refreshes the same document IDs.
func SeedFromLedger(ctx context.Context, s *DocStore, l ledger.Ledger) (int, error) {
	sum, err := ledger.Summarize(ctx, l)
	if err != nil {
		return 0, fmt.Errorf("SeedFromLedger: %w", err)
	}

	var docs []Document
	for _, b := range sum.Budgets {
		docs = append(docs, BudgetDocument(b))
	}
	for _, g := range sum.Goals {
		docs = append(docs, GoalDocument(g))
	}
	docs = append(docs, Document{
		ID: "summary_current",
		Text: fmt.Sprintf("Financial summary: Total income: %s. Total expenses: %s. Balance: %s. Number of transactions: %d",
			domain.FormatMoney(sum.TotalIncome), domain.FormatMoney(sum.TotalExpense),
			domain.FormatMoney(sum.TotalBalance), sum.TransactionsCount),
		Metadata: map[string]string{"type": "summary"},
	})
	docs = append(docs, ruleDocs...)

	s.Add(docs...)
	return len(docs), nil
}

// BudgetDocument describes a budget.
func BudgetDocument(b domain.Budget) Document {
	return Document{
		ID: "budget_" + strconv.FormatInt(b.ID, 10),
		Text: fmt.Sprintf("Budget: %s. Monthly limit: %s. Alert threshold: %s. Category: %s",
			b.Name, domain.FormatMoney(b.MonthlyLimit), domain.FormatPercent(b.AlertThreshold), b.Category),
		Metadata: map[string]string{"type": "budget", "name": b.Name, "category": b.Category},
	}
}

// GoalDocument describes a goal.
func GoalDocument(g domain.Goal) Document {
	text := fmt.Sprintf("Goal: %s. Target amount: %s. Currently saved: %s. Progress: %s",
		g.Name, domain.FormatMoney(g.TargetAmount), domain.FormatMoney(g.SavedAmount), domain.FormatPercent(g.Progress()))
	meta := map[string]string{"type": "goal", "name": g.Name}
	if g.TargetDate != nil {
		due := g.TargetDate.Format(domain.DateLayout)
		text += ". Target date: " + due
		meta["target_date"] = due
	}
	return Document{ID: "goal_" + strconv.FormatInt(g.ID, 10), Text: text, Metadata: meta}
}
