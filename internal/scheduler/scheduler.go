// Package scheduler runs the periodic checks on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrUnknownJob is returned by Run for a name that was never added.
var ErrUnknownJob = errors.New("scheduler: unknown job")

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner. Each job run gets its own timeout and logs
// its own failure; a failing job never stops the others.
type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	timeout time.Duration

	mu   sync.Mutex
	ctx  context.Context
	jobs map[string]Job
}

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = time.Minute

// New creates a stopped scheduler.
func New(log zerolog.Logger) *Scheduler {
	s := &Scheduler{
		log:     log,
		timeout: DefaultJobTimeout,
		ctx:     context.Background(),
		jobs:    make(map[string]Job),
	}
	cl := cronLogger{log: log}
	s.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s
}

// Add schedules job under name. An empty spec registers the job for Run only.
func (s *Scheduler) Add(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("Add: job %q already registered", name)
	}
	if spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.runLogged(name) }); err != nil {
			return fmt.Errorf("Add: job %q: parsing schedule %q: %w", name, spec, err)
		}
	}
	s.jobs[name] = job
	s.log.Info().Str("job", name).Str("schedule", spec).Msg("job registered")
	return nil
}

// Jobs returns the registered job names, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for n := range s.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run executes the named job once, outside the schedule.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("Run: %q: %w", name, ErrUnknownJob)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return job(ctx)
}

func (s *Scheduler) runLogged(name string) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	start := time.Now()
	if err := s.Run(ctx, name); err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
		return
	}
	s.log.Debug().Str("job", name).Dur("duration", time.Since(start)).Msg("scheduled job done")
}

// Start begins firing jobs. Scheduled runs inherit ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop halts the schedule and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Stop: waiting for running jobs: %w", ctx.Err())
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
