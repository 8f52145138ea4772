package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DispatcherConfig tunes the dispatcher.
type DispatcherConfig struct {
	Workers    int
	QueueSize  int
	Timeout    time.Duration
	MaxRetries int
	// Backoff is multiplied by the attempt number before a retry.
	Backoff time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 100
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.Backoff <= 0 {
		c.Backoff = time.Second
	}
	return c
}

// Dispatcher fans alert batches out to every registered endpoint. Send only
// enqueues; workers started by Start perform the deliveries.
type Dispatcher struct {
	registry *Registry
	sink     Sink
	store    *DeliveryStore
	cfg      DispatcherConfig
	log      zerolog.Logger

	queue     chan *Delivery
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	started   bool
}

// NewDispatcher creates a dispatcher. store may be nil.
func NewDispatcher(registry *Registry, sink Sink, store *DeliveryStore, cfg DispatcherConfig, log zerolog.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		registry:  registry,
		sink:      sink,
		store:     store,
		cfg:       cfg,
		log:       log,
		queue:     make(chan *Delivery, cfg.QueueSize),
		closeChan: make(chan struct{}),
	}
}

// Send queues one delivery per registered endpoint and returns immediately.
// When the queue is full the delivery is dropped and logged.
func (d *Dispatcher) Send(alerts []domain.Alert) {
	if len(alerts) == 0 {
		return
	}
	payload := Payload{Alerts: append([]domain.Alert(nil), alerts...)}

	for _, ep := range d.registry.List() {
		del := &Delivery{
			ID:         uuid.New().String(),
			EndpointID: ep.ID,
			URL:        ep.URL,
			AlertCount: len(payload.Alerts),
			Status:     DeliveryPending,
			MaxRetries: d.cfg.MaxRetries,
			CreatedAt:  time.Now().UTC(),
			endpoint:   ep,
			payload:    payload,
		}
		d.save(del)
		if err := d.enqueue(del); err != nil {
			now := time.Now().UTC()
			del.Status = DeliveryDropped
			del.Error = err.Error()
			del.CompletedAt = &now
			d.save(del)
			d.log.Warn().Err(err).Str("endpoint", ep.URL).Msg("alert delivery dropped")
		}
	}
}

func (d *Dispatcher) enqueue(del *Delivery) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return fmt.Errorf("dispatcher is closed")
	}
	select {
	case d.queue <- del:
		return nil
	default:
		return fmt.Errorf("delivery queue is full")
	}
}

func (d *Dispatcher) save(del *Delivery) {
	if d.store != nil {
		_ = d.store.Save(del)
	}
}

// Start launches the worker goroutines. They exit when ctx is cancelled or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("dispatcher is closed")
	}
	if d.started {
		return fmt.Errorf("dispatcher already started")
	}
	d.started = true

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	return nil
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.closeChan:
			d.drain(ctx)
			return
		case del := <-d.queue:
			if del == nil {
				return
			}
			d.process(ctx, del)
		}
	}
}

// drain delivers whatever is still queued once Stop has been called.
func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case del := <-d.queue:
			if del == nil {
				return
			}
			d.process(ctx, del)
		default:
			return
		}
	}
}

func (d *Dispatcher) isClosed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

func (d *Dispatcher) process(ctx context.Context, del *Delivery) {
	del.Status = DeliveryRunning
	del.Attempts++
	d.save(del)

	attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	err := d.sink.Deliver(attemptCtx, del.endpoint, del.payload)
	cancel()

	if err == nil {
		now := time.Now().UTC()
		del.Status = DeliveryDelivered
		del.Error = ""
		del.CompletedAt = &now
		d.save(del)
		return
	}

	del.Error = err.Error()
	log := d.log.Warn().Err(err).Str("endpoint", del.URL).Int("attempt", del.Attempts)

	if del.Attempts <= del.MaxRetries && !d.isClosed() {
		del.Status = DeliveryRetrying
		d.save(del)
		log.Msg("alert delivery failed, retrying")

		backoff := time.Duration(del.Attempts) * d.cfg.Backoff
		time.AfterFunc(backoff, func() {
			// Once enqueued, del belongs to whichever worker picks it up.
			del.Status = DeliveryPending
			d.save(del)
			if err := d.enqueue(del); err != nil {
				now := time.Now().UTC()
				del.Status = DeliveryDropped
				del.Error = err.Error()
				del.CompletedAt = &now
				d.save(del)
			}
		})
		return
	}

	now := time.Now().UTC()
	del.Status = DeliveryFailed
	del.CompletedAt = &now
	d.save(del)
	log.Msg("alert delivery failed")
}

// Stop stops accepting deliveries, lets the workers drain the queue and
// waits for them to finish. Failed deliveries are not retried after Stop.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.closeChan)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deliveries exposes the delivery log. It may be nil.
func (d *Dispatcher) Deliveries() *DeliveryStore {
	return d.store
}
