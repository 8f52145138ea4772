// Package postgres stores the ledger in PostgreSQL through a pgx pool.
// The schema is created by cmd/migrate.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DB is the subset of *pgxpool.Pool the ledger uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ledger is a PostgreSQL-backed ledger. Running totals are updated with a
// single UPDATE ... SET x = x + $1 statement so concurrent writers never
// lose increments.
type Ledger struct {
	db DB
}

// Open connects a pool to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("Open: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("Open: pinging database: %w", err)
	}
	return pool, nil
}

// New wraps a pool (or any DB) as a ledger.
func New(db DB) *Ledger {
	return &Ledger{db: db}
}

const transactionColumns = `id, amount, category, tx_date, description, kind`

// ListTransactions implements ledger.Ledger.
func (l *Ledger) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := l.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: querying: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var kind string
		if err := rows.Scan(&t.ID, &t.Amount, &t.Category, &t.Date, &t.Description, &kind); err != nil {
			return nil, fmt.Errorf("ListTransactions: scanning: %w", err)
		}
		t.Kind = domain.Kind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}

// AppendTransaction implements ledger.Ledger.
func (l *Ledger) AppendTransaction(ctx context.Context, draft domain.TransactionDraft) (domain.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return domain.Transaction{}, fmt.Errorf("AppendTransaction: %w", err)
	}
	t := domain.Transaction{
		Amount:      draft.Amount,
		Category:    draft.Category,
		Date:        domain.Day(draft.Date),
		Description: draft.Description,
		Kind:        draft.Kind,
	}
	err := l.db.QueryRow(ctx,
		`INSERT INTO transactions (amount, category, tx_date, description, kind)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		t.Amount, t.Category, t.Date, t.Description, string(t.Kind)).Scan(&t.ID)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("AppendTransaction: inserting: %w", err)
	}
	return t, nil
}

const budgetColumns = `id, name, category, monthly_limit, alert_threshold, spent_this_month`

func scanBudget(row pgx.Row) (domain.Budget, error) {
	var b domain.Budget
	err := row.Scan(&b.ID, &b.Name, &b.Category, &b.MonthlyLimit, &b.AlertThreshold, &b.SpentThisMonth)
	return b, err
}

// ListBudgets implements ledger.Ledger.
func (l *Ledger) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	rows, err := l.db.Query(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: querying: %w", err)
	}
	defer rows.Close()

	var out []domain.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("ListBudgets: scanning: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AppendBudget implements ledger.Ledger.
func (l *Ledger) AppendBudget(ctx context.Context, b domain.Budget) (domain.Budget, error) {
	if err := b.Validate(); err != nil {
		return domain.Budget{}, fmt.Errorf("AppendBudget: %w", err)
	}
	err := l.db.QueryRow(ctx,
		`INSERT INTO budgets (name, category, monthly_limit, alert_threshold, spent_this_month)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		b.Name, b.Category, b.MonthlyLimit, b.AlertThreshold, b.SpentThisMonth).Scan(&b.ID)
	if err != nil {
		return domain.Budget{}, fmt.Errorf("AppendBudget: inserting: %w", err)
	}
	return b, nil
}

// UpdateBudgetSpend implements ledger.Ledger.
func (l *Ledger) UpdateBudgetSpend(ctx context.Context, id int64, delta decimal.Decimal) (domain.Budget, error) {
	b, err := scanBudget(l.db.QueryRow(ctx,
		`UPDATE budgets SET spent_this_month = spent_this_month + $1 WHERE id = $2 RETURNING `+budgetColumns,
		delta, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Budget{}, fmt.Errorf("UpdateBudgetSpend: budget %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return domain.Budget{}, fmt.Errorf("UpdateBudgetSpend: updating: %w", err)
	}
	return b, nil
}

const goalColumns = `id, name, target_amount, saved_amount, target_date, description`

// uniqueViolation is the Postgres SQLSTATE for goals_name_unique_idx.
const uniqueViolation = "23505"

func scanGoal(row pgx.Row) (domain.Goal, error) {
	var g domain.Goal
	err := row.Scan(&g.ID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.TargetDate, &g.Description)
	return g, err
}

// ListGoals implements ledger.Ledger.
func (l *Ledger) ListGoals(ctx context.Context) ([]domain.Goal, error) {
	rows, err := l.db.Query(ctx, `SELECT `+goalColumns+` FROM goals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: querying: %w", err)
	}
	defer rows.Close()

	var out []domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("ListGoals: scanning: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// AppendGoal implements ledger.Ledger.
func (l *Ledger) AppendGoal(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	if err := g.Validate(); err != nil {
		return domain.Goal{}, fmt.Errorf("AppendGoal: %w", err)
	}
	err := l.db.QueryRow(ctx,
		`INSERT INTO goals (name, target_amount, saved_amount, target_date, description)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		g.Name, g.TargetAmount, g.SavedAmount, g.TargetDate, g.Description).Scan(&g.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.Goal{}, fmt.Errorf("AppendGoal: goal %q: %w", g.Name, ledger.ErrDuplicate)
	}
	if err != nil {
		return domain.Goal{}, fmt.Errorf("AppendGoal: inserting: %w", err)
	}
	return g, nil
}

// UpdateGoalSaved implements ledger.Ledger.
func (l *Ledger) UpdateGoalSaved(ctx context.Context, id int64, delta decimal.Decimal) (domain.Goal, error) {
	g, err := scanGoal(l.db.QueryRow(ctx,
		`UPDATE goals SET saved_amount = saved_amount + $1 WHERE id = $2 RETURNING `+goalColumns,
		delta, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Goal{}, fmt.Errorf("UpdateGoalSaved: goal %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return domain.Goal{}, fmt.Errorf("UpdateGoalSaved: updating: %w", err)
	}
	return g, nil
}

// AppendNotification implements ledger.Ledger.
func (l *Ledger) AppendNotification(ctx context.Context, typ domain.NotificationType, title, message string) (domain.Notification, error) {
	n := domain.Notification{Type: typ, Title: title, Message: message}
	err := l.db.QueryRow(ctx,
		`INSERT INTO notifications (type, title, message) VALUES ($1, $2, $3) RETURNING id, created_at`,
		string(typ), title, message).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("AppendNotification: inserting: %w", err)
	}
	return n, nil
}

// ListNotifications implements ledger.Ledger.
func (l *Ledger) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	rows, err := l.db.Query(ctx,
		`SELECT id, type, title, message, created_at, is_read FROM notifications ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListNotifications: querying: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var typ string
		if err := rows.Scan(&n.ID, &typ, &n.Title, &n.Message, &n.CreatedAt, &n.Read); err != nil {
			return nil, fmt.Errorf("ListNotifications: scanning: %w", err)
		}
		n.Type = domain.NotificationType(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead implements ledger.Ledger.
func (l *Ledger) MarkNotificationRead(ctx context.Context, id int64) error {
	tag, err := l.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("MarkNotificationRead: updating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("MarkNotificationRead: notification %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}

// TotalIncome implements ledger.Ledger.
func (l *Ledger) TotalIncome(ctx context.Context) (decimal.Decimal, error) {
	return l.total(ctx, domain.KindIncome)
}

// TotalExpense implements ledger.Ledger.
func (l *Ledger) TotalExpense(ctx context.Context) (decimal.Decimal, error) {
	return l.total(ctx, domain.KindExpense)
}

func (l *Ledger) total(ctx context.Context, kind domain.Kind) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := l.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(ABS(amount)), 0) FROM transactions WHERE kind = $1`, string(kind)).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total %s: %w", kind, err)
	}
	return sum, nil
}

// Ensure Ledger implements the ledger.Ledger interface.
var _ ledger.Ledger = (*Ledger)(nil)
