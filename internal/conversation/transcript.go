// Package conversation keeps the chat transcript used as context for
// intent resolution and follow-up detection.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

// MaxLineLength caps each rendered context line.
const MaxLineLength = 100

// Transcript is an append-only log of turns.
type Transcript interface {
	AppendTurn(ctx context.Context, role domain.Role, content string) error
	// Turns returns the last limit turns oldest first. limit <= 0 returns all.
	Turns(ctx context.Context, limit int) ([]domain.ConversationTurn, error)
}

// Context renders the last limit turns as "User: ..." / "Assistant: ..." lines.
func Context(ctx context.Context, t Transcript, limit int) (string, error) {
	turns, err := t.Turns(ctx, limit)
	if err != nil {
		return "", err
	}
	return Format(turns), nil
}

// Format renders turns one per line, each truncated to MaxLineLength.
func Format(turns []domain.ConversationTurn) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, truncate(speaker(turn.Role)+": "+flatten(turn.Content)))
	}
	return strings.Join(lines, "\n")
}

func speaker(r domain.Role) string {
	if r == domain.RoleAssistant {
		return "Assistant"
	}
	return "User"
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxLineLength {
		return s
	}
	return string(r[:MaxLineLength-3]) + "..."
}

func lastN(turns []domain.ConversationTurn, limit int) []domain.ConversationTurn {
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]domain.ConversationTurn(nil), turns...)
}

// MemoryTranscript keeps turns in process memory.
type MemoryTranscript struct {
	mu    sync.RWMutex
	turns []domain.ConversationTurn
	now   func() time.Time
}

// NewMemoryTranscript creates an empty transcript. now may be nil.
func NewMemoryTranscript(now func() time.Time) *MemoryTranscript {
	if now == nil {
		now = time.Now
	}
	return &MemoryTranscript{now: now}
}

// AppendTurn implements Transcript.
func (m *MemoryTranscript) AppendTurn(ctx context.Context, role domain.Role, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, domain.ConversationTurn{Role: role, Content: content, Timestamp: m.now().UTC()})
	return nil
}

// Turns implements Transcript.
func (m *MemoryTranscript) Turns(ctx context.Context, limit int) ([]domain.ConversationTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lastN(m.turns, limit), nil
}

// Ensure MemoryTranscript implements Transcript.
var _ Transcript = (*MemoryTranscript)(nil)
