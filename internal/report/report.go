// Package report renders the ledger as markdown for terminal output.
package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/dvloznov/finance-assistant/internal/tools"
	md "github.com/nao1215/markdown"
)

// Report is a point-in-time view of the ledger. Budgets carry spend recomputed
// from this month's expenses.
type Report struct {
	Date    time.Time
	Summary domain.FinancialSummary
	Budgets []tools.BudgetStatus
	Goals   []tools.GoalStatus
}

// Build collects a report through the same tools the assistant uses.
func Build(ctx context.Context, svc *finance.Service, reg *tools.Registry) (Report, error) {
	sum, err := svc.Summary(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("Build: summarizing ledger: %w", err)
	}
	rep := Report{Date: svc.Now(), Summary: sum}

	_, res, err := reg.Dispatch(ctx, domain.IntentResult{Intent: domain.IntentAskBudgetStatus})
	if err != nil {
		return Report{}, fmt.Errorf("Build: budget status: %w", err)
	}
	if b, ok := res.(tools.BudgetStatusResult); ok {
		rep.Budgets = b.Budgets
	}

	_, res, err = reg.Dispatch(ctx, domain.IntentResult{Intent: domain.IntentAskGoalProgress})
	if err != nil {
		return Report{}, fmt.Errorf("Build: goal status: %w", err)
	}
	if g, ok := res.(tools.GoalStatusResult); ok {
		rep.Goals = g.Goals
	}
	return rep, nil
}

// Markdown renders the report.
func Markdown(r Report) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Financial Summary on %s", r.Date.Format(domain.DateLayout)))
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"", md.Bold(domain.FormatMoney(r.Summary.TotalBalance))},
		Rows: [][]string{
			{"Income", domain.FormatMoney(r.Summary.TotalIncome)},
			{"Expenses", domain.FormatMoney(r.Summary.TotalExpense)},
			{"Transactions", fmt.Sprintf("%d", r.Summary.TransactionsCount)},
		},
	})

	doc.H2("Budgets")
	if len(r.Budgets) == 0 {
		doc.PlainText("No budgets defined.")
	} else {
		rows := make([][]string, 0, len(r.Budgets))
		for _, b := range r.Budgets {
			remaining := domain.FormatMoney(b.Remaining)
			if b.Over() {
				remaining = md.Bold("over by " + domain.FormatMoney(b.Remaining.Neg()))
			}
			rows = append(rows, []string{b.Name, domain.FormatMoney(b.Limit), domain.FormatMoney(b.Spent), remaining})
		}
		doc.Table(md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Budget", "Limit", "Spent", "Remaining"},
			Rows:      rows,
		})
	}

	doc.H2("Goals")
	if len(r.Goals) == 0 {
		doc.PlainText("No goals defined.")
	} else {
		rows := make([][]string, 0, len(r.Goals))
		for _, g := range r.Goals {
			due := "-"
			if g.TargetDate != nil {
				due = g.TargetDate.Format(domain.DateLayout)
			}
			rows = append(rows, []string{
				g.Name,
				domain.FormatMoney(g.Saved),
				domain.FormatMoney(g.Target),
				domain.FormatPercent(g.Progress),
				due,
			})
		}
		doc.Table(md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignLeft},
			Header:    []string{"Goal", "Saved", "Target", "Progress", "Due"},
			Rows:      rows,
		})
	}

	return doc.String()
}

// AlertsMarkdown renders alerts as a bullet list under title.
func AlertsMarkdown(title string, alerts []domain.Alert) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(title)
	if len(alerts) == 0 {
		doc.PlainText("Nothing to report.")
		return doc.String()
	}
	items := make([]string, 0, len(alerts))
	for _, a := range alerts {
		items = append(items, fmt.Sprintf("%s: %s", md.Bold(a.Title), a.Message))
	}
	doc.BulletList(items...)
	return doc.String()
}
