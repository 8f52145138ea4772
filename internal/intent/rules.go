package intent

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/shopspring/decimal"
)

// CommonCategories is the vocabulary matched when no category follows a preposition.
var CommonCategories = []string{
	"groceries",
	"rent",
	"transport",
	"bills",
	"utilities",
	"entertainment",
	"dining",
	"coffee",
	"shopping",
	"misc",
}

// MinDateYear is the sanity floor for parsed dates; dates in this year or
// earlier are discarded.
const MinDateYear = 2000

var (
	isoDateRe      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	currencyRe     = regexp.MustCompile(`\$\s?([0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]+)?|[0-9]+(?:\.[0-9]+)?)`)
	amountRe       = regexp.MustCompile(`([0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]+)?|[0-9]+(?:\.[0-9]+)?)`)
	prepositionRe  = regexp.MustCompile(`\b(?:on|for|in)\s+([a-z]+)`)
	goalNameRe     = regexp.MustCompile(`\b(?:to|towards|toward|into|for)\s+(?:my\s+|the\s+|our\s+)?([a-z0-9][a-z0-9 '\-]*?)\s+goal\b`)
	quotedRe       = regexp.MustCompile(`(?:^|\s)["'‘“]([^"'’”]+)["'’”]`)
	abilityRe      = regexp.MustCompile(`\bafford\b|\bcan i (?:spend|buy|get)\b|\bshould i (?:spend|buy)\b|\bis it ok(?:ay)? to (?:spend|buy)\b`)
	contributionRe = regexp.MustCompile(`\b(?:contribute|contributed|put|save|saved|deposit|deposited|add|added|transfer|transferred|move|moved|allocate)\b`)
	towardsGoalRe  = regexp.MustCompile(`\bgoal\b|\btowards?\b`)
	incomeRe       = regexp.MustCompile(`\b(?:income|salary|earned|earn|received|paycheck|payday|got paid|bonus|refund|freelance)\b`)
	expenseRe      = regexp.MustCompile(`\b(?:add|added|spent|bought|buy|purchase|purchased|pay|paid|paying|cost)\b`)
	summaryRe      = regexp.MustCompile(`\bhow much\b|\bsummary\b|\bforecast\b|\bpredict(?:ion)?\b|\bspend(?:ing)?\b|\bprojection\b`)
	budgetRe       = regexp.MustCompile(`\bbudgets?\b`)
	goalRe         = regexp.MustCompile(`\bgoals?\b|\bsaving(?:s)?\b|\bsave\b`)
	listRe         = regexp.MustCompile(`\b(?:show|list|recent)\b`)
	transactionRe  = regexp.MustCompile(`\btransactions?\b`)
	healthRe       = regexp.MustCompile(`\bdoing\b|\btrack\b|\bokay\b|\bstatus\b|\bhealth\b|\bhow am i\b`)
)

// Words after on/for/in that are never categories.
var categoryStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "my": true, "our": true, "this": true, "that": true,
	"it": true, "me": true, "last": true, "next": true, "today": true, "yesterday": true,
	"tomorrow": true, "total": true, "week": true, "month": true, "year": true, "all": true,
	"some": true, "each": true, "cash": true, "card": true, "dollars": true, "usd": true,
}

// RuleClassifier is the deterministic keyword and regex classifier. It never
// fails and returns domain.IntentUnknown when no rule matches. The only input
// besides the message is the clock used to anchor relative dates.
type RuleClassifier struct {
	now    func() time.Time
	parser *when.Parser
}

// NewRuleClassifier creates a classifier using now for relative dates.
func NewRuleClassifier(now func() time.Time) *RuleClassifier {
	if now == nil {
		now = time.Now
	}
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return &RuleClassifier{now: now, parser: p}
}

// Resolve implements Resolver. The error is always nil.
func (c *RuleClassifier) Resolve(ctx context.Context, req Request) (domain.IntentResult, error) {
	return c.Classify(req.Message), nil
}

// Classify returns the intent and entities of message.
func (c *RuleClassifier) Classify(message string) domain.IntentResult {
	lower := strings.ToLower(message)
	ents := domain.Entities{
		Amount:   ExtractAmount(message),
		Category: ExtractCategory(lower),
		Date:     c.ExtractDate(message),
	}
	hasAmount := ents.Amount != nil

	intent := domain.IntentUnknown
	switch {
	case abilityRe.MatchString(lower):
		intent = domain.IntentCheckSpendingAbility
	case hasAmount && contributionRe.MatchString(lower) && towardsGoalRe.MatchString(lower):
		intent = domain.IntentAddGoalContribution
		ents.GoalName = ExtractGoalName(message)
		ents.Category = ""
	case hasAmount && incomeRe.MatchString(lower):
		intent = domain.IntentAddIncome
	case hasAmount && expenseRe.MatchString(lower) && !strings.Contains(lower, "how much"):
		intent = domain.IntentAddTransaction
	case summaryRe.MatchString(lower):
		intent = domain.IntentAskSpendingSummary
	case budgetRe.MatchString(lower):
		intent = domain.IntentAskBudgetStatus
	case goalRe.MatchString(lower):
		intent = domain.IntentAskGoalProgress
	case listRe.MatchString(lower) && transactionRe.MatchString(lower):
		intent = domain.IntentShowTransactions
	case healthRe.MatchString(lower):
		intent = domain.IntentHealthCheck
	case incomeRe.MatchString(lower):
		intent = domain.IntentAddIncome
	case expenseRe.MatchString(lower):
		intent = domain.IntentAddTransaction
	}
	if intent == domain.IntentAddIncome {
		ents.Category = domain.IncomeCategory
	}
	return domain.IntentResult{Intent: intent, Entities: ents}
}

// ExtractAmount returns the first currency-like numeral. A $-prefixed number
// wins over a bare one, and ISO dates are never read as amounts.
func ExtractAmount(message string) *decimal.Decimal {
	text := isoDateRe.ReplaceAllString(message, " ")
	m := currencyRe.FindStringSubmatch(text)
	if m == nil {
		m = amountRe.FindStringSubmatch(text)
	}
	if m == nil {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return nil
	}
	return &d
}

// ExtractCategory returns the word after on/for/in, or the first vocabulary
// category mentioned. lower must already be lower-cased.
func ExtractCategory(lower string) string {
	for _, m := range prepositionRe.FindAllStringSubmatch(lower, -1) {
		if word := m[1]; !categoryStopWords[word] {
			return word
		}
	}
	for _, c := range CommonCategories {
		if strings.Contains(lower, c) {
			return c
		}
	}
	return ""
}

// ExtractGoalName returns the goal named in a contribution message, either
// "... to my <name> goal" or a quoted name.
func ExtractGoalName(message string) string {
	if m := quotedRe.FindStringSubmatch(message); m != nil {
		return strings.TrimSpace(m[1])
	}
	lower := strings.ToLower(message)
	if m := goalNameRe.FindStringSubmatch(lower); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ExtractDate returns a YYYY-MM-DD date from an ISO literal or a natural
// language phrase, or "" when none is found or the year is not after MinDateYear.
func (c *RuleClassifier) ExtractDate(message string) string {
	if m := isoDateRe.FindString(message); m != "" {
		if t, err := domain.ParseDay(m); err == nil && t.Year() > MinDateYear {
			return t.Format(domain.DateLayout)
		}
		return ""
	}
	r, err := c.parser.Parse(message, c.now())
	if err != nil || r == nil {
		return ""
	}
	// Bare numbers are amounts, not times of day.
	if !strings.ContainsAny(r.Text, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ/") {
		return ""
	}
	if r.Time.Year() <= MinDateYear {
		return ""
	}
	return r.Time.Format(domain.DateLayout)
}

// Ensure RuleClassifier implements Resolver.
var _ Resolver = (*RuleClassifier)(nil)
