// Package notify holds the alerting rules. Every rule that fires appends a
// notification to the ledger and returns it as an alert for delivery.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-assistant/internal/cashflow"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/events"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Rule constants.
var (
	LargeTransactionThreshold = decimal.NewFromInt(500)
	CashflowRiskFraction      = decimal.RequireFromString("0.75")
)

const (
	GoalLookBackDays  = 30
	GoalLookAheadDays = 5
)

// Engine evaluates the rules against the current ledger state.
type Engine struct {
	ledger ledger.Ledger
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used by the date-window rules.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a rule engine over l.
func NewEngine(l ledger.Ledger, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{ledger: l, log: log, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register subscribes the engine's handlers on bus.
func (e *Engine) Register(bus *events.Bus) {
	bus.Subscribe(domain.EventTransactionCreated, "notify.transaction_created", e.handleTransactionCreated)
	bus.Subscribe(domain.EventGoalCheckDue, "notify.goal_check_due", e.handleGoalCheckDue)
	bus.Subscribe(domain.EventDailyCheck, "notify.daily_check", e.handleDailyCheck)
}

func (e *Engine) handleTransactionCreated(ctx context.Context, ev domain.Event) (events.Result, error) {
	tx, ok := ev.TransactionFrom()
	if !ok {
		return events.Result{}, fmt.Errorf("transaction.created event %s carries no transaction", ev.ID)
	}
	alerts, err := e.OnTransactionCreated(ctx, tx)
	return events.Result{Alerts: alerts}, err
}

func (e *Engine) handleGoalCheckDue(ctx context.Context, _ domain.Event) (events.Result, error) {
	alerts, err := e.CheckGoalsDue(ctx)
	return events.Result{Alerts: alerts}, err
}

func (e *Engine) handleDailyCheck(ctx context.Context, _ domain.Event) (events.Result, error) {
	alerts, err := e.CheckCashflowRisk(ctx)
	return events.Result{Alerts: alerts}, err
}

// OnTransactionCreated applies the large transaction, budget and balance rules.
// Budget rules read the budget's running total, which the caller has already
// incremented for this transaction. Threshold and exceeded may both fire.
func (e *Engine) OnTransactionCreated(ctx context.Context, tx domain.Transaction) ([]domain.Alert, error) {
	var alerts []domain.Alert
	notify := func(typ domain.NotificationType, title, message string) error {
		n, err := e.ledger.AppendNotification(ctx, typ, title, message)
		if err != nil {
			return fmt.Errorf("OnTransactionCreated: appending %s: %w", typ, err)
		}
		alerts = append(alerts, domain.AlertFor(n))
		return nil
	}

	if tx.Amount.Abs().GreaterThan(LargeTransactionThreshold) {
		msg := fmt.Sprintf("A transaction of %s was added in %s", domain.FormatMoney(tx.Amount), tx.Category)
		if err := notify(domain.NotificationLargeTransaction, "Large Transaction", msg); err != nil {
			return alerts, err
		}
	}

	if tx.Kind == domain.KindExpense {
		budgets, err := e.ledger.ListBudgets(ctx)
		if err != nil {
			return alerts, fmt.Errorf("OnTransactionCreated: listing budgets: %w", err)
		}
		if b, ok := domain.FindBudgetByCategory(budgets, tx.Category); ok {
			spent, limit := b.SpentThisMonth, b.MonthlyLimit
			if spent.GreaterThanOrEqual(b.ThresholdAmount()) {
				msg := fmt.Sprintf("Your spending has reached %s/%s (%s)",
					domain.FormatMoney(spent), domain.FormatMoney(limit), domain.FormatPercent(spent.Div(limit)))
				if err := notify(domain.NotificationBudgetThreshold, tx.Category+" Budget Alert", msg); err != nil {
					return alerts, err
				}
			}
			if spent.GreaterThanOrEqual(limit) {
				msg := fmt.Sprintf("You have exceeded your budget of %s for %s!", domain.FormatMoney(limit), tx.Category)
				if err := notify(domain.NotificationBudgetExceeded, tx.Category+" Budget Exceeded", msg); err != nil {
					return alerts, err
				}
			}
		}
	}

	income, err := e.ledger.TotalIncome(ctx)
	if err != nil {
		return alerts, fmt.Errorf("OnTransactionCreated: total income: %w", err)
	}
	expense, err := e.ledger.TotalExpense(ctx)
	if err != nil {
		return alerts, fmt.Errorf("OnTransactionCreated: total expense: %w", err)
	}
	if income.LessThan(expense) {
		msg := fmt.Sprintf("Your total balance is negative: %s", domain.FormatMoney(income.Sub(expense)))
		if err := notify(domain.NotificationNegativeBalance, "Negative Balance", msg); err != nil {
			return alerts, err
		}
	}
	return alerts, nil
}

// CheckGoalsDue notifies for every goal due between GoalLookBackDays ago and
// GoalLookAheadDays ahead, inclusive.
func (e *Engine) CheckGoalsDue(ctx context.Context) ([]domain.Alert, error) {
	goals, err := e.ledger.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("CheckGoalsDue: listing goals: %w", err)
	}
	today := domain.Day(e.now())

	var alerts []domain.Alert
	for _, g := range goals {
		if g.TargetDate == nil {
			continue
		}
		offset := domain.DaysBetween(today, *g.TargetDate)
		if offset < -GoalLookBackDays || offset > GoalLookAheadDays {
			continue
		}
		n, err := e.ledger.AppendNotification(ctx, domain.NotificationGoalDueSoon,
			"Goal Due Soon: "+g.Name, GoalDueMessage(g.Name, *g.TargetDate, offset))
		if err != nil {
			return alerts, fmt.Errorf("CheckGoalsDue: appending notification: %w", err)
		}
		alerts = append(alerts, domain.AlertFor(n))
	}
	e.log.Debug().Int("alerts", len(alerts)).Msg("goal due check finished")
	return alerts, nil
}

// GoalDueMessage words a due date relative to today. offset is the number of
// days from today to the due date.
func GoalDueMessage(name string, due time.Time, offset int) string {
	date := due.Format("02 Jan")
	switch {
	case offset == 0:
		return fmt.Sprintf("Goal '%s' is due today (%s)", name, date)
	case offset == 1:
		return fmt.Sprintf("Goal '%s' is due tomorrow (%s)", name, date)
	case offset > 1:
		return fmt.Sprintf("Goal '%s' is due in %d days (%s)", name, offset, date)
	case offset == -1:
		return fmt.Sprintf("Goal '%s' was due yesterday (%s)", name, date)
	default:
		return fmt.Sprintf("Goal '%s' was due %d days ago (%s)", name, -offset, date)
	}
}

// CheckCashflowRisk warns when next week's projected spend exceeds
// CashflowRiskFraction of the combined monthly budget limits.
func (e *Engine) CheckCashflowRisk(ctx context.Context) ([]domain.Alert, error) {
	txs, err := e.ledger.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("CheckCashflowRisk: listing transactions: %w", err)
	}
	budgets, err := e.ledger.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("CheckCashflowRisk: listing budgets: %w", err)
	}
	if len(budgets) == 0 {
		return nil, nil
	}

	p := cashflow.Project(txs, e.now())
	if p.NoData {
		return nil, nil
	}
	total := decimal.Zero
	for _, b := range budgets {
		total = total.Add(b.MonthlyLimit)
	}
	if !p.NextWeek.GreaterThan(total.Mul(CashflowRiskFraction)) {
		return nil, nil
	}

	msg := fmt.Sprintf("Estimated next week spend %s exceeds %s of total budgets (%s)",
		domain.FormatMoney(p.NextWeek), domain.FormatPercent(CashflowRiskFraction), domain.FormatMoney(total))
	n, err := e.ledger.AppendNotification(ctx, domain.NotificationCashflowRisk, "Cashflow Risk", msg)
	if err != nil {
		return nil, fmt.Errorf("CheckCashflowRisk: appending notification: %w", err)
	}
	return []domain.Alert{domain.AlertFor(n)}, nil
}
