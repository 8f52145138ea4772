package domain

import "github.com/shopspring/decimal"

// FinancialSummary is the snapshot of state handed to the intent resolver.
type FinancialSummary struct {
	TotalBalance      decimal.Decimal `json:"total_balance"`
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalExpense      decimal.Decimal `json:"total_expense"`
	TransactionsCount int             `json:"transactions_count"`
	Budgets           []Budget        `json:"budgets"`
	Goals             []Goal          `json:"goals"`
}
