package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target.
type Goal struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal `json:"saved_amount"`
	TargetDate   *time.Time      `json:"target_date,omitempty"`
	Description  string          `json:"description,omitempty"`
}

// Validate checks the goal can be stored.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("goal name is required")
	}
	if g.TargetAmount.IsNegative() {
		return fmt.Errorf("target amount must be non-negative")
	}
	if g.SavedAmount.IsNegative() {
		return fmt.Errorf("saved amount must be non-negative")
	}
	return nil
}

// Progress is saved / target, or zero when the target is zero. It may exceed 1.
func (g Goal) Progress() decimal.Decimal {
	if g.TargetAmount.IsZero() {
		return decimal.Zero
	}
	return g.SavedAmount.Div(g.TargetAmount)
}

// Remaining is target minus saved. Negative once the goal is overfunded.
func (g Goal) Remaining() decimal.Decimal {
	return g.TargetAmount.Sub(g.SavedAmount)
}

// FindGoalByName looks a goal up by exact name, ignoring case.
func FindGoalByName(goals []Goal, name string) (Goal, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Goal{}, false
	}
	for _, g := range goals {
		if strings.EqualFold(strings.TrimSpace(g.Name), name) {
			return g, true
		}
	}
	return Goal{}, false
}
