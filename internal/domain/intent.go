package domain

import (
	"github.com/shopspring/decimal"
)

// Intent is the user goal extracted from a message.
type Intent string

const (
	IntentAddTransaction       Intent = "add_transaction"
	IntentAddIncome            Intent = "add_income"
	IntentAddGoalContribution  Intent = "add_goal_contribution"
	IntentAskBudgetStatus      Intent = "ask_budget_status"
	IntentAskGoalProgress      Intent = "ask_goal_progress"
	IntentAskSpendingSummary   Intent = "ask_spending_summary"
	IntentCheckSpendingAbility Intent = "check_spending_ability"
	IntentShowTransactions     Intent = "show_transactions"
	IntentHealthCheck          Intent = "health_check"
	IntentUnknown              Intent = "unknown"
)

// Intents lists every recognized intent except IntentUnknown.
var Intents = []Intent{
	IntentAddTransaction,
	IntentAddIncome,
	IntentAddGoalContribution,
	IntentAskBudgetStatus,
	IntentAskGoalProgress,
	IntentAskSpendingSummary,
	IntentCheckSpendingAbility,
	IntentShowTransactions,
	IntentHealthCheck,
}

// Recognized reports whether i is a known intent other than unknown.
func (i Intent) Recognized() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// Entities are the fields extracted alongside an intent.
// Date is kept as YYYY-MM-DD text; an empty value means absent.
type Entities struct {
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Category string           `json:"category,omitempty"`
	GoalName string           `json:"goal_name,omitempty"`
	Date     string           `json:"date,omitempty"`
}

// IntentResult is what the resolver hands to the rest of the pipeline.
type IntentResult struct {
	Intent   Intent   `json:"intent"`
	Entities Entities `json:"entities"`
}
