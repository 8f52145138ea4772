// Package agent runs the conversational pipeline: resolve the intent,
// validate its entities, run the tool and phrase the reply.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/finance-assistant/internal/conversation"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/dvloznov/finance-assistant/internal/intent"
	"github.com/dvloznov/finance-assistant/internal/rag"
	"github.com/dvloznov/finance-assistant/internal/tools"
	"github.com/rs/zerolog"
)

// ToolFollowUp is reported when the reply was taken from the transcript.
const ToolFollowUp = "follow_up"

// Defaults for Config.
const (
	DefaultHistoryLimit = 20
	DefaultContextK     = 3
)

// ContextProvider returns reference snippets for a query.
type ContextProvider interface {
	Retrieve(query string, k int) []rag.Hit
}

// Config tunes how much context the resolver sees.
type Config struct {
	HistoryLimit int
	ContextK     int
}

// Reply is the outcome of one message.
type Reply struct {
	Response    string              `json:"response"`
	Tool        string              `json:"tool"`
	ToolResult  tools.Result        `json:"tool_result,omitempty"`
	Intent      domain.IntentResult `json:"intent"`
	ContextUsed []string            `json:"context_used,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Agent owns one pipeline. Handle runs on the caller's goroutine.
type Agent struct {
	resolver   intent.Resolver
	validator  *Validator
	registry   *tools.Registry
	svc        *finance.Service
	transcript conversation.Transcript
	docs       ContextProvider
	cfg        Config
	log        zerolog.Logger
}

// New creates an Agent. docs may be nil.
func New(resolver intent.Resolver, svc *finance.Service, transcript conversation.Transcript, docs ContextProvider, cfg Config, log zerolog.Logger) *Agent {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.ContextK <= 0 {
		cfg.ContextK = DefaultContextK
	}
	return &Agent{
		resolver:   resolver,
		validator:  NewValidator(svc.Ledger()),
		registry:   tools.NewRegistry(svc),
		svc:        svc,
		transcript: transcript,
		docs:       docs,
		cfg:        cfg,
		log:        log,
	}
}

// Handle answers one message. It always produces a reply; internal failures
// are logged and turned into a failure reply.
func (a *Agent) Handle(ctx context.Context, message string) Reply {
	history := a.history(ctx)
	req, used := a.request(ctx, message, history)
	res := a.resolve(ctx, req)

	reply := Reply{Intent: res, ContextUsed: used, Timestamp: a.svc.Now().UTC()}

	if text, ok := DetectFollowUp(message, history, res.Intent); ok {
		reply.Response = text
		reply.Tool = ToolFollowUp
		a.remember(ctx, message, reply.Response)
		return reply
	}

	reply.Tool, reply.ToolResult = a.run(ctx, res)
	reply.Response = Synthesize(reply.Tool, reply.ToolResult)
	a.remember(ctx, message, reply.Response)
	return reply
}

// ClassifyOnly resolves message without running any tool or touching the transcript.
func (a *Agent) ClassifyOnly(ctx context.Context, message string) domain.IntentResult {
	req, _ := a.request(ctx, message, a.history(ctx))
	return a.resolve(ctx, req)
}

func (a *Agent) run(ctx context.Context, res domain.IntentResult) (string, tools.Result) {
	toolName := tools.NameNone
	if t, ok := a.registry.Lookup(res.Intent); ok {
		toolName = t.Name
	}

	if err := a.validator.Validate(ctx, res); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return toolName, tools.Fail(verr.Reason)
		}
		a.log.Error().Err(err).Str("intent", string(res.Intent)).Msg("validation failed")
		return toolName, tools.Fail("could not read your data")
	}

	name, out, err := a.registry.Dispatch(ctx, res)
	if err != nil {
		a.log.Error().Err(err).Str("tool", name).Msg("tool failed")
		return name, tools.Fail("could not complete the request")
	}
	return name, out
}

func (a *Agent) resolve(ctx context.Context, req intent.Request) domain.IntentResult {
	res, err := a.resolver.Resolve(ctx, req)
	if err != nil {
		a.log.Warn().Err(err).Msg("intent resolution failed")
		return domain.IntentResult{Intent: domain.IntentUnknown}
	}
	return res
}

func (a *Agent) history(ctx context.Context) []domain.ConversationTurn {
	if a.transcript == nil {
		return nil
	}
	turns, err := a.transcript.Turns(ctx, a.cfg.HistoryLimit)
	if err != nil {
		a.log.Warn().Err(err).Msg("reading transcript")
		return nil
	}
	return turns
}

func (a *Agent) request(ctx context.Context, message string, history []domain.ConversationTurn) (intent.Request, []string) {
	req := intent.Request{Message: message, History: conversation.Format(history)}

	if sum, err := a.svc.Summary(ctx); err != nil {
		a.log.Warn().Err(err).Msg("building summary")
	} else {
		req.Summary = &sum
	}

	var used []string
	if a.docs != nil {
		hits := a.docs.Retrieve(message, a.cfg.ContextK)
		req.ContextText = rag.FormatForPrompt(hits)
		used = rag.IDs(hits)
	}
	return req, used
}

func (a *Agent) remember(ctx context.Context, message, response string) {
	if a.transcript == nil {
		return
	}
	if err := a.transcript.AppendTurn(ctx, domain.RoleUser, message); err != nil {
		a.log.Warn().Err(err).Msg("saving user turn")
		return
	}
	if err := a.transcript.AppendTurn(ctx, domain.RoleAssistant, response); err != nil {
		a.log.Warn().Err(err).Msg("saving assistant turn")
	}
}
