package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Budget caps monthly spending on one category.
//
// SpentThisMonth is a running total incremented when a matching expense is
// recorded. Alert rules read it; status queries recompute spend from the
// transactions instead.
type Budget struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	MonthlyLimit   decimal.Decimal `json:"monthly_limit"`
	AlertThreshold decimal.Decimal `json:"alert_threshold"`
	SpentThisMonth decimal.Decimal `json:"spent_this_month"`
}

// Validate enforces limit > 0 and threshold in (0,1].
func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("budget name is required")
	}
	if strings.TrimSpace(b.Category) == "" {
		return fmt.Errorf("budget category is required")
	}
	if !b.MonthlyLimit.IsPositive() {
		return fmt.Errorf("monthly limit must be positive")
	}
	if !b.AlertThreshold.IsPositive() || b.AlertThreshold.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("alert threshold must be in (0, 1]")
	}
	return nil
}

// Remaining is limit minus spent, floored at zero.
func (b Budget) Remaining() decimal.Decimal {
	return decimal.Max(decimal.Zero, b.MonthlyLimit.Sub(b.SpentThisMonth))
}

// UsedFraction is spent / limit, capped at 1.
func (b Budget) UsedFraction() decimal.Decimal {
	if b.MonthlyLimit.IsZero() {
		return decimal.Zero
	}
	return decimal.Min(decimal.NewFromInt(1), b.SpentThisMonth.Div(b.MonthlyLimit))
}

// ThresholdAmount is the spend at which the budget starts alerting.
func (b Budget) ThresholdAmount() decimal.Decimal {
	return b.AlertThreshold.Mul(b.MonthlyLimit)
}

// FindBudgetByCategory returns the first budget whose category matches.
func FindBudgetByCategory(budgets []Budget, category string) (Budget, bool) {
	for _, b := range budgets {
		if SameCategory(b.Category, category) {
			return b, true
		}
	}
	return Budget{}, false
}
