package agent

import (
	"fmt"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

// Phrasings that refer back to something said earlier.
var followUpPhrases = []string{
	"how much did i spend",
	"how much did i just spend",
	"how much was that",
	"how much was it",
	"how much did that cost",
	"how much did it cost",
	"what did i spend",
	"what did i just spend",
	"what was that amount",
}

var spendingVerbs = []string{"spent", "spend", "paid", "pay", "bought", "buy", "purchased", "cost"}

// DetectFollowUp answers a backward-referencing spending question from the
// transcript. It returns false unless the intent is a spending summary, the
// message matches a known phrasing and an earlier user statement mentions
// spending. Questions and assistant replies are never quoted. The reply
// always quotes the matched line verbatim.
func DetectFollowUp(message string, history []domain.ConversationTurn, intent domain.Intent) (string, bool) {
	if intent != domain.IntentAskSpendingSummary || !isFollowUp(message) {
		return "", false
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != domain.RoleUser {
			continue
		}
		line := strings.TrimSpace(history[i].Content)
		if !strings.Contains(line, "?") && mentionsSpending(line) {
			return fmt.Sprintf("Earlier you said: %q", line), true
		}
	}
	return "", false
}

func isFollowUp(message string) bool {
	m := strings.ToLower(strings.Join(strings.Fields(message), " "))
	for _, p := range followUpPhrases {
		if strings.Contains(m, p) {
			return true
		}
	}
	return false
}

func mentionsSpending(line string) bool {
	lower := strings.ToLower(line)
	if !strings.Contains(lower, "$") && !strings.Contains(lower, " on ") {
		return false
	}
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		for _, v := range spendingVerbs {
			if w == v {
				return true
			}
		}
	}
	return false
}
