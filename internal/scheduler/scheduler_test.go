package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/events"
	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/dvloznov/finance-assistant/internal/ledger/inmemory"
	"github.com/dvloznov/finance-assistant/internal/ledger/snapshot"
	"github.com/dvloznov/finance-assistant/internal/notify"
	"github.com/rs/zerolog"
)

var now = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type collectSender struct {
	alerts []domain.Alert
}

func (c *collectSender) Send(alerts []domain.Alert) { c.alerts = append(c.alerts, alerts...) }

func seeded(t *testing.T) (*inmemory.Store, *finance.Service, *collectSender) {
	t.Helper()
	store := inmemory.NewStore(inmemory.WithClock(clock))
	if err := ledger.SeedDemo(context.Background(), store, now); err != nil {
		t.Fatal(err)
	}
	sender := &collectSender{}
	bus := events.NewBus(sender, zerolog.Nop())
	notify.NewEngine(store, zerolog.Nop(), notify.WithClock(clock)).Register(bus)
	return store, finance.NewService(store, bus, zerolog.Nop(), finance.WithClock(clock)), sender
}

func TestAdd(t *testing.T) {
	noop := func(context.Context) error { return nil }
	tests := []struct {
		name    string
		job     string
		spec    string
		wantErr bool
	}{
		{"descriptor", "a", "@daily", false},
		{"every", "b", "@every 5m", false},
		{"run only", "c", "", false},
		{"bad spec", "d", "not a schedule", true},
		{"duplicate", "a", "@hourly", true},
	}

	s := New(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Add(tt.job, tt.spec, noop)
			if (err != nil) != tt.wantErr {
				t.Errorf("Add(%q, %q) error = %v, wantErr %v", tt.job, tt.spec, err, tt.wantErr)
			}
		})
	}

	got := s.Jobs()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Jobs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Jobs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRun_Unknown(t *testing.T) {
	s := New(zerolog.Nop())
	if err := s.Run(context.Background(), "missing"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Run() error = %v, want ErrUnknownJob", err)
	}
}

func TestRun_PropagatesJobError(t *testing.T) {
	s := New(zerolog.Nop())
	boom := errors.New("boom")
	if err := s.Add("fail", "", func(context.Context) error { return boom }); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background(), "fail"); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want boom", err)
	}
}

func TestGoalCheck(t *testing.T) {
	store, svc, sender := seeded(t)
	s := New(zerolog.Nop())
	if err := s.Add(JobGoalCheck, "@daily", GoalCheck(svc)); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background(), JobGoalCheck); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	notes, _ := store.ListNotifications(context.Background())
	if len(notes) != 1 || notes[0].Type != domain.NotificationGoalDueSoon {
		t.Errorf("notifications = %+v", notes)
	}
	if len(sender.alerts) != 1 {
		t.Errorf("dispatched %d alerts, want 1", len(sender.alerts))
	}
}

func TestDailyCheck_NoTransactions(t *testing.T) {
	store, svc, _ := seeded(t)
	if err := DailyCheck(svc)(context.Background()); err != nil {
		t.Fatalf("DailyCheck() error = %v", err)
	}
	notes, _ := store.ListNotifications(context.Background())
	if len(notes) != 0 {
		t.Errorf("notifications = %+v, want none", notes)
	}
}

func TestOutcomeErr(t *testing.T) {
	boom := errors.New("boom")
	err := outcomeErr([]events.Outcome{
		{Handler: "ok"},
		{Handler: "broken", Err: boom},
	})
	if !errors.Is(err, boom) {
		t.Errorf("outcomeErr() = %v, want wrapped boom", err)
	}
	if outcomeErr(nil) != nil {
		t.Error("outcomeErr(nil) should be nil")
	}
}

func TestSnapshotSave(t *testing.T) {
	store, _, _ := seeded(t)
	file := snapshot.NewFileStore(filepath.Join(t.TempDir(), "ledger.json"))

	if err := SnapshotSave(store, file)(context.Background()); err != nil {
		t.Fatalf("SnapshotSave() error = %v", err)
	}
	state, err := file.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Budgets) != 4 || len(state.Goals) != 3 {
		t.Errorf("saved state has %d budgets, %d goals", len(state.Budgets), len(state.Goals))
	}
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	if err := s.Add("noop", "@every 1h", func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	s.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
