package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells expenses from income.
type Kind string

const (
	KindExpense Kind = "EXPENSE"
	KindIncome  Kind = "INCOME"
)

// Default categories applied when none was extracted.
const (
	DefaultExpenseCategory = "misc"
	IncomeCategory         = "income"
)

// Transaction is a ledger entry. Amount is always the non-negative magnitude;
// the direction lives in Kind. Transactions are never edited after creation.
type Transaction struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Kind        Kind            `json:"kind"`
}

// TransactionDraft is a transaction before the ledger assigns it an ID.
type TransactionDraft struct {
	Amount      decimal.Decimal
	Category    string
	Date        time.Time
	Description string
	Kind        Kind
}

// Validate checks the draft can be appended.
func (d TransactionDraft) Validate() error {
	if d.Amount.IsNegative() {
		return fmt.Errorf("amount must be non-negative, got %s", d.Amount)
	}
	if d.Kind != KindExpense && d.Kind != KindIncome {
		return fmt.Errorf("unknown transaction kind %q", d.Kind)
	}
	if strings.TrimSpace(d.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if d.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	return nil
}

// SameCategory reports whether two category labels match: exact, ignoring case.
func SameCategory(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDay: %w", err)
	}
	return t, nil
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
