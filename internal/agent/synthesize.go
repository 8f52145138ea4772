package agent

import (
	"fmt"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/tools"
	"github.com/shopspring/decimal"
)

// FallbackReply is returned when no tool produced an answer.
const FallbackReply = "Sorry, I couldn't determine an action for that request."

var half = decimal.NewFromFloat(0.5)

// Synthesize turns a tool result into the user-facing reply. It never
// mutates anything and handles the failure shape of every tool.
func Synthesize(tool string, result tools.Result) string {
	st := tools.StatusOf(result)

	switch tool {
	case tools.NameAddTransaction:
		if r, ok := result.(tools.TransactionResult); ok && st.OK {
			tx := r.Transaction
			return fmt.Sprintf("Added transaction #%d: %s - %s on %s",
				tx.ID, domain.FormatMoney(tx.Amount), tx.Category, tx.Date.Format(domain.DateLayout))
		}
		return "Failed to add transaction: " + reason(st)

	case tools.NameAddIncome:
		if r, ok := result.(tools.TransactionResult); ok && st.OK {
			tx := r.Transaction
			return fmt.Sprintf("Added income #%d: %s on %s",
				tx.ID, domain.FormatMoney(tx.Amount), tx.Date.Format(domain.DateLayout))
		}
		return "Failed to add income: " + reason(st)

	case tools.NameAddGoalContribution:
		if r, ok := result.(tools.GoalContributionResult); ok && st.OK {
			return contributionReply(r)
		}
		return "Couldn't add the contribution: " + reason(st)

	case tools.NameGetBudgetStatus:
		if r, ok := result.(tools.BudgetStatusResult); ok && st.OK {
			return budgetReply(r.Budgets)
		}
		return "Couldn't load budgets: " + reason(st)

	case tools.NameGetGoalStatus:
		if r, ok := result.(tools.GoalStatusResult); ok && st.OK {
			return goalReply(r.Goals)
		}
		return "Couldn't load goals: " + reason(st)

	case tools.NamePredictCashflow:
		r, ok := result.(tools.CashflowResult)
		if !ok || !st.OK {
			if st.Reason != "" {
				return "No prediction available: " + st.Reason
			}
			return "No prediction available."
		}
		if r.NoData {
			return r.Message
		}
		return fmt.Sprintf("Estimated next week spend: %s. Next 30 days: %s.",
			domain.FormatMoney(r.NextWeek), domain.FormatMoney(r.Next30))

	case tools.NameCheckSpendingAbility:
		if r, ok := result.(tools.SpendingAbilityResult); ok && st.OK {
			return spendingAbilityReply(r)
		}
		return "Couldn't check that purchase: " + reason(st)

	case tools.NameListTransactions:
		if r, ok := result.(tools.TransactionListResult); ok && st.OK {
			return transactionsReply(r.Transactions)
		}
		return "Couldn't load transactions: " + reason(st)

	case tools.NameFinancialHealth:
		if r, ok := result.(tools.HealthResult); ok && st.OK {
			return healthReply(r)
		}
		return "Couldn't assess your finances: " + reason(st)
	}
	return FallbackReply
}

func reason(st tools.Status) string {
	if st.Reason == "" {
		return "unknown error"
	}
	return st.Reason
}

func contributionReply(r tools.GoalContributionResult) string {
	g := r.Goal
	msg := fmt.Sprintf("Added %s to %s. Saved %s of %s (%s).",
		domain.FormatMoney(r.Amount), g.Name, domain.FormatMoney(g.Saved),
		domain.FormatMoney(g.Target), domain.FormatPercent(g.Progress))
	if g.Remaining.IsPositive() {
		return msg + " " + domain.FormatMoney(g.Remaining) + " to go."
	}
	return msg + " Goal reached!"
}

func budgetReply(budgets []tools.BudgetStatus) string {
	if len(budgets) == 0 {
		return "No budgets available."
	}
	parts := make([]string, 0, len(budgets))
	for _, b := range budgets {
		if b.Over() {
			parts = append(parts, fmt.Sprintf("%s: over by %s", b.Name, domain.FormatMoney(b.Remaining.Neg())))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: remaining %s", b.Name, domain.FormatMoney(b.Remaining)))
	}
	return "Budget status: " + strings.Join(parts, "; ")
}

func goalReply(goals []tools.GoalStatus) string {
	if len(goals) == 0 {
		return "No goals configured."
	}
	parts := make([]string, 0, len(goals))
	for _, g := range goals {
		parts = append(parts, fmt.Sprintf("%s: %s (remaining %s)",
			g.Name, domain.FormatPercent(g.Progress), domain.FormatMoney(decimal.Max(decimal.Zero, g.Remaining))))
	}
	return "Goal progress: " + strings.Join(parts, "; ")
}

func spendingAbilityReply(r tools.SpendingAbilityResult) string {
	amount := domain.FormatMoney(r.Amount)
	switch {
	case !r.HasBudget:
		return fmt.Sprintf("There is no budget for %s, so spending %s is not limited.", r.Category, amount)
	case r.Affordable:
		return fmt.Sprintf("Yes, you can spend %s on %s. You'll have %s left in your %s budget.",
			amount, r.Category, domain.FormatMoney(r.Headroom), r.Budget)
	default:
		return fmt.Sprintf("Spending %s on %s would put you %s over your %s budget.",
			amount, r.Category, domain.FormatMoney(r.Headroom.Neg()), r.Budget)
	}
}

func transactionsReply(txs []domain.Transaction) string {
	if len(txs) == 0 {
		return "You have no transactions yet."
	}
	lines := make([]string, 0, len(txs))
	for _, t := range txs {
		lines = append(lines, fmt.Sprintf("%s on %s (%s)",
			domain.FormatMoney(t.Amount), t.Category, t.Date.Format(domain.DateLayout)))
	}
	return "Here are your recent transactions:\n" + strings.Join(lines, "\n")
}

func healthReply(r tools.HealthResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This month you've spent %s. Your average daily spend is %s.",
		domain.FormatMoney(r.SpentThisMonth), domain.FormatMoney(r.AvgDaily))
	if r.Balance.IsNegative() {
		fmt.Fprintf(&b, " Your balance is negative: %s.", domain.FormatMoney(r.Balance))
	}

	if len(r.Budgets) > 0 {
		var over []string
		for _, bs := range r.Budgets {
			if bs.Over() {
				over = append(over, bs.Name)
			}
		}
		if len(over) > 0 {
			b.WriteString("\nThese budgets are over their limit: " + strings.Join(over, ", ") + ".")
		} else {
			b.WriteString("\nYour budgets look on track.")
		}
	}

	if len(r.Goals) > 0 {
		slow := false
		for _, g := range r.Goals {
			if g.Progress.LessThan(half) {
				slow = true
				break
			}
		}
		if slow {
			b.WriteString("\nSome goals may need more contributions.")
		} else {
			b.WriteString("\nYour goals are progressing well.")
		}
	}
	return b.String()
}
