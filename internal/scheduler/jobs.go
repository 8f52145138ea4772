package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-assistant/internal/events"
	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/dvloznov/finance-assistant/internal/ledger"
)

// Job names registered by the API server.
const (
	JobGoalCheck    = "goal-check"
	JobDailyCheck   = "daily-check"
	JobSnapshotSave = "snapshot-save"
)

// GoalCheck publishes goal.check_due.
func GoalCheck(svc *finance.Service) Job {
	return func(ctx context.Context) error {
		return outcomeErr(svc.CheckGoalsDue(ctx))
	}
}

// DailyCheck publishes daily.check.
func DailyCheck(svc *finance.Service) Job {
	return func(ctx context.Context) error {
		return outcomeErr(svc.DailyCheck(ctx))
	}
}

func outcomeErr(outcomes []events.Outcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("handler %s: %w", o.Handler, o.Err))
		}
	}
	return errors.Join(errs...)
}

// Exporter produces the full ledger state.
type Exporter interface {
	Export() ledger.State
}

// StateSaver persists ledger state.
type StateSaver interface {
	Save(ctx context.Context, state ledger.State) error
}

// SnapshotSave writes the exported ledger state to store.
func SnapshotSave(src Exporter, store StateSaver) Job {
	return func(ctx context.Context) error {
		if err := store.Save(ctx, src.Export()); err != nil {
			return fmt.Errorf("SnapshotSave: %w", err)
		}
		return nil
	}
}
