// Package events is a synchronous publish/subscribe bus that decouples
// ledger mutations from alerting.
package events

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Result is what a handler hands back to the bus.
type Result struct {
	Alerts []domain.Alert
}

// Handler reacts to one event. A returned error or a panic is recorded for
// that handler only.
type Handler func(ctx context.Context, event domain.Event) (Result, error)

// AlertSender receives the merged alerts of one publish. It must not block.
type AlertSender interface {
	Send(alerts []domain.Alert)
}

// Outcome records how one handler fared.
type Outcome struct {
	Handler string
	Result  Result
	Err     error
}

type subscription struct {
	name    string
	handler Handler
}

// Publisher is the publishing half of the bus.
type Publisher interface {
	Publish(ctx context.Context, name string, payload map[string]any) []Outcome
}

// Bus delivers events to subscribers in registration order on the caller's goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	sender   AlertSender
	log      zerolog.Logger
	now      func() time.Time
}

// NewBus creates a bus. sender may be nil, in which case alerts are dropped.
func NewBus(sender AlertSender, log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]subscription),
		sender:   sender,
		log:      log,
		now:      time.Now,
	}
}

// Subscribe registers handler for event name under a descriptive handler name.
func (b *Bus) Subscribe(event, handlerName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], subscription{name: handlerName, handler: handler})
}

// Publish runs every handler for name and forwards their merged alerts as
// one batch. It never fails; per-handler errors are in the returned outcomes.
func (b *Bus) Publish(ctx context.Context, name string, payload map[string]any) []Outcome {
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[name]...)
	b.mu.RUnlock()

	event := domain.Event{
		ID:         uuid.New(),
		Name:       name,
		OccurredAt: b.now().UTC(),
		Payload:    payload,
	}

	outcomes := make([]Outcome, 0, len(subs))
	var alerts []domain.Alert
	for _, sub := range subs {
		res, err := b.invoke(ctx, sub, event)
		if err != nil {
			b.log.Error().Err(err).
				Str("event", name).
				Str("handler", sub.name).
				Msg("event handler failed")
		}
		alerts = append(alerts, res.Alerts...)
		outcomes = append(outcomes, Outcome{Handler: sub.name, Result: res, Err: err})
	}

	if len(alerts) > 0 && b.sender != nil {
		b.sender.Send(alerts)
	}
	return outcomes
}

func (b *Bus) invoke(ctx context.Context, sub subscription, event domain.Event) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Debug().Str("stack", string(debug.Stack())).Msg("recovered handler panic")
			res = Result{}
			err = fmt.Errorf("handler %s panicked: %v", sub.name, r)
		}
	}()
	res, err = sub.handler(ctx, event)
	if err != nil {
		// A failing handler contributes nothing.
		return Result{}, err
	}
	return res, nil
}

// Ensure Bus implements Publisher.
var _ Publisher = (*Bus)(nil)
