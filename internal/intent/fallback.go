package intent

import (
	"context"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/rs/zerolog"
)

// FallbackResolver runs a primary resolver under a timeout and answers from
// the rule classifier whenever the primary fails. It never returns an error.
type FallbackResolver struct {
	primary  Resolver
	fallback *RuleClassifier
	timeout  time.Duration
	log      zerolog.Logger
}

// NewFallbackResolver creates a resolver. primary may be nil, in which case
// only the rule classifier is used.
func NewFallbackResolver(primary Resolver, fallback *RuleClassifier, timeout time.Duration, log zerolog.Logger) *FallbackResolver {
	if fallback == nil {
		fallback = NewRuleClassifier(nil)
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &FallbackResolver{primary: primary, fallback: fallback, timeout: timeout, log: log}
}

// Resolve implements Resolver.
func (r *FallbackResolver) Resolve(ctx context.Context, req Request) (domain.IntentResult, error) {
	if r.primary != nil {
		res, err := r.callPrimary(ctx, req)
		if err == nil {
			return res, nil
		}
		r.log.Warn().Err(err).Msg("intent resolver failed, using rule classifier")
	}
	return r.fallback.Classify(req.Message), nil
}

func (r *FallbackResolver) callPrimary(ctx context.Context, req Request) (domain.IntentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type answer struct {
		res domain.IntentResult
		err error
	}
	// Buffered so a primary that ignores ctx cannot leak a blocked goroutine.
	done := make(chan answer, 1)
	go func() {
		res, err := r.primary.Resolve(ctx, req)
		done <- answer{res, err}
	}()

	select {
	case a := <-done:
		if a.err == nil && !a.res.Intent.Recognized() {
			return domain.IntentResult{}, ErrUnrecognizedIntent
		}
		return a.res, a.err
	case <-ctx.Done():
		return domain.IntentResult{}, ctx.Err()
	}
}

// Ensure FallbackResolver implements Resolver.
var _ Resolver = (*FallbackResolver)(nil)
