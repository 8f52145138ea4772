package cashflow

import (
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/shopspring/decimal"
)

var today = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

func tx(amount int64, category string, daysAgo int, kind domain.Kind) domain.Transaction {
	return domain.Transaction{
		Amount:   decimal.NewFromInt(amount),
		Category: category,
		Date:     domain.Day(today).AddDate(0, 0, -daysAgo),
		Kind:     kind,
	}
}

func TestProject_NoData(t *testing.T) {
	p := Project(nil, today)
	if !p.NoData {
		t.Error("expected NoData for empty input")
	}
	p = Project([]domain.Transaction{tx(1000, "income", 1, domain.KindIncome)}, today)
	if !p.NoData {
		t.Error("income only must yield NoData")
	}
}

func TestProject_Window(t *testing.T) {
	txs := []domain.Transaction{
		tx(100, "groceries", 10, domain.KindExpense),
		tx(50, "Dining", 0, domain.KindExpense),
		tx(999, "rent", 60, domain.KindExpense), // outside window
		tx(5000, "income", 2, domain.KindIncome),
	}
	p := Project(txs, today)

	if p.NoData {
		t.Fatal("unexpected NoData")
	}
	if p.SpanDays != 10 {
		t.Errorf("SpanDays = %d, want 10", p.SpanDays)
	}
	if !p.AvgDaily.Equal(decimal.NewFromInt(15)) {
		t.Errorf("AvgDaily = %s, want 15", p.AvgDaily)
	}
	if !p.NextWeek.Equal(decimal.NewFromInt(105)) || !p.Next30.Equal(decimal.NewFromInt(450)) {
		t.Errorf("projections = %s / %s", p.NextWeek, p.Next30)
	}
	if len(p.ByCategory) != 2 || p.ByCategory[0].Category != "groceries" || p.ByCategory[1].Category != "dining" {
		t.Errorf("ByCategory = %+v", p.ByCategory)
	}
}

func TestProject_SingleDaySpanIsOne(t *testing.T) {
	p := Project([]domain.Transaction{tx(40, "coffee", 0, domain.KindExpense), tx(20, "coffee", 0, domain.KindExpense)}, today)
	if p.SpanDays != 1 || !p.AvgDaily.Equal(decimal.NewFromInt(60)) {
		t.Errorf("SpanDays = %d AvgDaily = %s", p.SpanDays, p.AvgDaily)
	}
}

func TestProject_FallsBackToAll(t *testing.T) {
	p := Project([]domain.Transaction{tx(300, "rent", 90, domain.KindExpense), tx(300, "rent", 60, domain.KindExpense)}, today)
	if p.SpanDays != 30 || !p.Total.Equal(decimal.NewFromInt(600)) {
		t.Errorf("SpanDays = %d Total = %s", p.SpanDays, p.Total)
	}
}
