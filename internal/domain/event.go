package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event names published on the bus.
const (
	EventTransactionCreated = "transaction.created"
	EventGoalCheckDue       = "goal.check_due"
	EventDailyCheck         = "daily.check"
	// EventLedgerChanged follows budget, goal and contribution writes.
	EventLedgerChanged = "ledger.changed"
)

// Event is a transient state-change signal.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Payload keys.
const (
	PayloadTransaction = "transaction"
	PayloadBudget      = "budget"
	PayloadGoal        = "goal"
)

// TransactionFrom extracts the transaction carried by a transaction.created event.
func (e Event) TransactionFrom() (Transaction, bool) {
	switch tx := e.Payload[PayloadTransaction].(type) {
	case Transaction:
		return tx, true
	case *Transaction:
		if tx != nil {
			return *tx, true
		}
	}
	return Transaction{}, false
}
