// Package cashflow projects future spending from recent expenses.
package cashflow

import (
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/shopspring/decimal"
)

// WindowDays is how far back the projection looks.
const WindowDays = 30

// CategorySpend is the spend of one category inside the window.
type CategorySpend struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	AvgDaily decimal.Decimal `json:"avg_daily"`
}

// Projection is the result of Project. NoData is set when there were no
// expenses at all, in which case every numeric field is zero.
type Projection struct {
	NoData     bool            `json:"no_data"`
	WindowFrom time.Time       `json:"window_from,omitempty"`
	WindowTo   time.Time       `json:"window_to,omitempty"`
	SpanDays   int             `json:"span_days,omitempty"`
	Total      decimal.Decimal `json:"total"`
	AvgDaily   decimal.Decimal `json:"avg_daily"`
	NextWeek   decimal.Decimal `json:"next_week_estimate"`
	Next30     decimal.Decimal `json:"next_30_estimate"`
	ByCategory []CategorySpend `json:"by_category,omitempty"`
}

// Project averages expense spend over the last WindowDays days, or over all
// expenses when none fall in the window. The span between earliest and latest
// expense is at least one day.
func Project(txs []domain.Transaction, now time.Time) Projection {
	var expenses []domain.Transaction
	for _, t := range txs {
		if t.Kind == domain.KindExpense {
			expenses = append(expenses, t)
		}
	}
	if len(expenses) == 0 {
		return Projection{NoData: true}
	}

	cutoff := domain.Day(now).AddDate(0, 0, -WindowDays)
	var window []domain.Transaction
	for _, t := range expenses {
		if !domain.Day(t.Date).Before(cutoff) {
			window = append(window, t)
		}
	}
	if len(window) == 0 {
		window = expenses
	}

	earliest, latest := domain.Day(window[0].Date), domain.Day(window[0].Date)
	total := decimal.Zero
	byCat := map[string]decimal.Decimal{}
	for _, t := range window {
		d := domain.Day(t.Date)
		if d.Before(earliest) {
			earliest = d
		}
		if d.After(latest) {
			latest = d
		}
		amt := t.Amount.Abs()
		total = total.Add(amt)
		cat := strings.ToLower(strings.TrimSpace(t.Category))
		if cat == "" {
			cat = domain.DefaultExpenseCategory
		}
		byCat[cat] = byCat[cat].Add(amt)
	}

	span := domain.DaysBetween(earliest, latest)
	if span < 1 {
		span = 1
	}
	days := decimal.NewFromInt(int64(span))
	avg := total.Div(days)

	cats := make([]CategorySpend, 0, len(byCat))
	for cat, sum := range byCat {
		cats = append(cats, CategorySpend{Category: cat, Total: sum, AvgDaily: sum.Div(days)})
	}
	sort.Slice(cats, func(i, j int) bool {
		if !cats[i].Total.Equal(cats[j].Total) {
			return cats[i].Total.GreaterThan(cats[j].Total)
		}
		return cats[i].Category < cats[j].Category
	})

	return Projection{
		WindowFrom: earliest,
		WindowTo:   latest,
		SpanDays:   span,
		Total:      total,
		AvgDaily:   avg,
		NextWeek:   avg.Mul(decimal.NewFromInt(7)),
		Next30:     avg.Mul(decimal.NewFromInt(30)),
		ByCategory: cats,
	}
}
