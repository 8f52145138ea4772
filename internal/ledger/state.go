package ledger

import "github.com/dvloznov/finance-assistant/internal/domain"

// State is a full copy of a ledger's contents, used for persistence.
type State struct {
	Transactions  []domain.Transaction  `json:"transactions"`
	Budgets       []domain.Budget       `json:"budgets"`
	Goals         []domain.Goal         `json:"goals"`
	Notifications []domain.Notification `json:"notifications"`
}
