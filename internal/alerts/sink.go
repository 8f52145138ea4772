package alerts

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

// Payload is the body delivered to every endpoint.
type Payload struct {
	Alerts []domain.Alert `json:"alerts"`
}

// Sink delivers one payload to one endpoint.
type Sink interface {
	Deliver(ctx context.Context, ep Endpoint, payload Payload) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ep Endpoint, payload Payload) error

// Deliver implements Sink.
func (f SinkFunc) Deliver(ctx context.Context, ep Endpoint, payload Payload) error {
	return f(ctx, ep, payload)
}

// SchemeRouter sends each endpoint to the sink registered for its scheme.
type SchemeRouter map[string]Sink

// Deliver implements Sink.
func (r SchemeRouter) Deliver(ctx context.Context, ep Endpoint, payload Payload) error {
	sink, ok := r[ep.Scheme()]
	if !ok || sink == nil {
		return fmt.Errorf("deliver to %s: %w", ep.URL, ErrUnsupportedScheme)
	}
	return sink.Deliver(ctx, ep, payload)
}

// Schemes lists the schemes the router can serve.
func (r SchemeRouter) Schemes() []string {
	out := make([]string, 0, len(r))
	for s, sink := range r {
		if sink != nil {
			out = append(out, s)
		}
	}
	return out
}
