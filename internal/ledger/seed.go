package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/shopspring/decimal"
)

// SeedDemo fills an empty ledger with a small set of budgets and goals.
// It does nothing when budgets or goals already exist.
func SeedDemo(ctx context.Context, l Ledger, now time.Time) error {
	budgets, err := l.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("SeedDemo: listing budgets: %w", err)
	}
	goals, err := l.ListGoals(ctx)
	if err != nil {
		return fmt.Errorf("SeedDemo: listing goals: %w", err)
	}
	if len(budgets) > 0 || len(goals) > 0 {
		return nil
	}

	threshold := decimal.RequireFromString("0.8")
	for _, b := range []domain.Budget{
		{Name: "Groceries", Category: "groceries", MonthlyLimit: decimal.NewFromInt(400), AlertThreshold: threshold},
		{Name: "Dining", Category: "dining", MonthlyLimit: decimal.NewFromInt(200), AlertThreshold: threshold},
		{Name: "Transport", Category: "transport", MonthlyLimit: decimal.NewFromInt(150), AlertThreshold: threshold},
		{Name: "Entertainment", Category: "entertainment", MonthlyLimit: decimal.NewFromInt(100), AlertThreshold: threshold},
	} {
		if _, err := l.AppendBudget(ctx, b); err != nil {
			return fmt.Errorf("SeedDemo: adding budget %s: %w", b.Name, err)
		}
	}

	vacation := domain.Day(now).AddDate(0, 6, 0)
	laptop := domain.Day(now).AddDate(0, 0, 4)
	for _, g := range []domain.Goal{
		{Name: "Emergency Fund", TargetAmount: decimal.NewFromInt(5000), SavedAmount: decimal.NewFromInt(1200), Description: "Three months of expenses"},
		{Name: "Vacation", TargetAmount: decimal.NewFromInt(2000), SavedAmount: decimal.NewFromInt(350), TargetDate: &vacation},
		{Name: "Laptop", TargetAmount: decimal.NewFromInt(1500), SavedAmount: decimal.NewFromInt(900), TargetDate: &laptop},
	} {
		if _, err := l.AppendGoal(ctx, g); err != nil {
			return fmt.Errorf("SeedDemo: adding goal %s: %w", g.Name, err)
		}
	}
	return nil
}
