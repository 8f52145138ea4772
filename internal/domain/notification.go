package domain

import "time"

// NotificationType is the rule that produced a notification.
type NotificationType string

const (
	NotificationLargeTransaction NotificationType = "transaction.large"
	NotificationBudgetThreshold  NotificationType = "budget.threshold"
	NotificationBudgetExceeded   NotificationType = "budget.exceeded"
	NotificationNegativeBalance  NotificationType = "balance.negative"
	NotificationGoalDueSoon      NotificationType = "goal.due_soon"
	NotificationCashflowRisk     NotificationType = "cashflow.risk"
)

// Notification is an alert recorded in the ledger. Only Read changes after creation.
type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
	Read      bool             `json:"read"`
}

// Alert is the outbound form of a notification, posted to alert endpoints.
type Alert struct {
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	NotificationID int64            `json:"notification_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// AlertFor converts a stored notification into an alert.
func AlertFor(n Notification) Alert {
	return Alert{
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		NotificationID: n.ID,
		CreatedAt:      n.CreatedAt,
	}
}
