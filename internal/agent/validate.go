package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/ledger"
)

// ValidationError is a missing or invalid entity. No tool runs when one is returned.
type ValidationError struct {
	Intent domain.Intent
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Intent, e.Reason)
}

// Validator checks that an intent carries the entities its tool needs.
type Validator struct {
	ledger ledger.Ledger
}

// NewValidator creates a Validator that looks goals up in l.
func NewValidator(l ledger.Ledger) *Validator {
	return &Validator{ledger: l}
}

// Validate returns a *ValidationError for bad entities, another error when
// the ledger cannot be read, and nil otherwise.
func (v *Validator) Validate(ctx context.Context, res domain.IntentResult) error {
	invalid := func(reason string) error {
		return &ValidationError{Intent: res.Intent, Reason: reason}
	}
	ents := res.Entities

	switch res.Intent {
	case domain.IntentAddTransaction, domain.IntentAddIncome, domain.IntentCheckSpendingAbility:
		if ents.Amount == nil {
			return invalid("missing amount")
		}
	case domain.IntentAddGoalContribution:
		name := strings.TrimSpace(ents.GoalName)
		if name == "" {
			return invalid("missing goal name")
		}
		goals, err := v.ledger.ListGoals(ctx)
		if err != nil {
			return fmt.Errorf("Validate: listing goals: %w", err)
		}
		if _, ok := domain.FindGoalByName(goals, name); !ok {
			return invalid(fmt.Sprintf("goal %q not found", name))
		}
		if ents.Amount == nil {
			return invalid("missing amount")
		}
	}
	return nil
}
