package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/dvloznov/finance-assistant/internal/ledger/inmemory"
	"github.com/dvloznov/finance-assistant/internal/tools"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var now = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func TestBuildAndRender(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore(inmemory.WithClock(clock))
	if err := ledger.SeedDemo(ctx, store, now); err != nil {
		t.Fatal(err)
	}
	svc := finance.NewService(store, nil, zerolog.Nop(), finance.WithClock(clock))
	for _, d := range []domain.TransactionDraft{
		{Amount: decimal.NewFromInt(1000), Kind: domain.KindIncome},
		{Amount: decimal.NewFromInt(120), Category: "entertainment", Kind: domain.KindExpense},
	} {
		if _, err := svc.RecordTransaction(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	rep, err := Build(ctx, svc, tools.NewRegistry(svc))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(rep.Budgets) != 4 || len(rep.Goals) != 3 {
		t.Fatalf("Build() budgets = %d, goals = %d", len(rep.Budgets), len(rep.Goals))
	}

	out := Markdown(rep)
	for _, want := range []string{
		"# Financial Summary on 2025-03-20",
		"$880.00",
		"## Budgets",
		"Groceries",
		"over by $20.00",
		"## Goals",
		"Laptop",
		"60%",
		"2025-03-24",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Markdown() missing %q in:\n%s", want, out)
		}
	}
}

func TestMarkdown_Empty(t *testing.T) {
	out := Markdown(Report{Date: now})
	for _, want := range []string{"No budgets defined.", "No goals defined.", "$0.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("Markdown() missing %q in:\n%s", want, out)
		}
	}
}

func TestAlertsMarkdown(t *testing.T) {
	tests := []struct {
		name   string
		alerts []domain.Alert
		want   []string
	}{
		{
			name: "none",
			want: []string{"# Goals due", "Nothing to report."},
		},
		{
			name: "one alert",
			alerts: []domain.Alert{{
				Type:    domain.NotificationGoalDueSoon,
				Title:   "Goal Due Soon",
				Message: "Goal 'Laptop' is due in 4 days (2025-03-24)",
			}},
			want: []string{"# Goals due", "Goal Due Soon", "Goal 'Laptop' is due in 4 days"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := AlertsMarkdown("Goals due", tt.alerts)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("AlertsMarkdown() missing %q in:\n%s", w, out)
				}
			}
		})
	}
}
