package tools

import (
	"time"

	"github.com/dvloznov/finance-assistant/internal/cashflow"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/shopspring/decimal"
)

// Status is shared by every tool result. Callers check OK before reading
// any other field.
type Status struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func (s Status) status() Status { return s }

// Result is the closed set of tool result shapes.
type Result interface {
	status() Status
}

// StatusOf returns the status of any result. A nil result is a failure.
func StatusOf(r Result) Status {
	if r == nil {
		return Status{Reason: "no result"}
	}
	return r.status()
}

var succeeded = Status{OK: true}

// FailureResult carries only a failure reason. Validation and lookup
// failures use it so no tool runs.
type FailureResult struct {
	Status
}

// Fail builds a FailureResult.
func Fail(reason string) FailureResult {
	return FailureResult{Status: Status{Reason: reason}}
}

// TransactionResult is returned by add_transaction and add_income.
type TransactionResult struct {
	Status
	Transaction domain.Transaction `json:"transaction"`
}

// GoalContributionResult is returned by add_goal_contribution.
type GoalContributionResult struct {
	Status
	Amount decimal.Decimal `json:"amount"`
	Goal   GoalStatus      `json:"goal"`
}

// BudgetStatus is one recomputed budget line. Remaining may be negative.
type BudgetStatus struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Over reports whether spend exceeds the limit.
func (b BudgetStatus) Over() bool {
	return b.Remaining.IsNegative()
}

// BudgetStatusResult is returned by get_budget_status.
type BudgetStatusResult struct {
	Status
	Budgets []BudgetStatus `json:"budgets"`
}

// GoalStatus is one goal with its derived progress.
type GoalStatus struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Target     decimal.Decimal `json:"target"`
	Saved      decimal.Decimal `json:"saved"`
	Progress   decimal.Decimal `json:"progress"`
	Remaining  decimal.Decimal `json:"remaining"`
	TargetDate *time.Time      `json:"target_date,omitempty"`
}

func goalStatus(g domain.Goal) GoalStatus {
	return GoalStatus{
		ID:         g.ID,
		Name:       g.Name,
		Target:     g.TargetAmount,
		Saved:      g.SavedAmount,
		Progress:   g.Progress(),
		Remaining:  g.Remaining(),
		TargetDate: g.TargetDate,
	}
}

// GoalStatusResult is returned by get_goal_status.
type GoalStatusResult struct {
	Status
	Goals []GoalStatus `json:"goals"`
}

// NoDataMessage is the prediction text when there is nothing to project.
const NoDataMessage = "No transactions available to predict."

// CashflowResult is returned by predict_cashflow. When NoData is set only
// Message is meaningful.
type CashflowResult struct {
	Status
	cashflow.Projection
	Message string `json:"prediction,omitempty"`
}

// SpendingAbilityResult is returned by check_spending_ability.
type SpendingAbilityResult struct {
	Status
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Affordable bool            `json:"affordable"`
	// HasBudget is false when no budget constrains the category.
	HasBudget bool            `json:"has_budget"`
	Budget    string          `json:"budget,omitempty"`
	Limit     decimal.Decimal `json:"limit"`
	Spent     decimal.Decimal `json:"spent"`
	// Headroom is limit - spent - amount. Negative means over by that much.
	Headroom decimal.Decimal `json:"headroom"`
}

// TransactionListResult is returned by list_transactions, oldest first.
type TransactionListResult struct {
	Status
	Transactions []domain.Transaction `json:"transactions"`
}

// HealthResult is returned by financial_health.
type HealthResult struct {
	Status
	SpentThisMonth decimal.Decimal `json:"spent_this_month"`
	AvgDaily       decimal.Decimal `json:"avg_daily"`
	Balance        decimal.Decimal `json:"balance"`
	Budgets        []BudgetStatus  `json:"budgets"`
	Goals          []GoalStatus    `json:"goals"`
}
