// Package intent turns a free-text message into a structured intent.
//
// A remote model is tried first; transport errors, malformed output and
// unrecognized intents fall back to the deterministic RuleClassifier.
package intent

import (
	"context"
	"errors"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

var (
	// ErrMalformedOutput is returned when model output is not the expected JSON object.
	ErrMalformedOutput = errors.New("intent: malformed model output")
	// ErrUnrecognizedIntent is returned when the model names an intent outside the recognized set.
	ErrUnrecognizedIntent = errors.New("intent: unrecognized intent")
)

// Request is everything a resolver may look at.
type Request struct {
	Message string
	// Summary is optional.
	Summary *domain.FinancialSummary
	// ContextText is retrieved reference text, one snippet per line. Optional.
	ContextText string
	// History is the recent transcript rendered as text. Optional.
	History string
}

// Resolver classifies a message.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (domain.IntentResult, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, req Request) (domain.IntentResult, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, req Request) (domain.IntentResult, error) {
	return f(ctx, req)
}
