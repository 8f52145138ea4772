package intent

import (
	"fmt"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type modelOutput struct {
	Intent   string         `json:"intent"`
	Entities map[string]any `json:"entities"`
}

// ParseModelOutput strictly parses a model reply of the form
// {"intent": "...", "entities": {...}}. Unknown entity keys are ignored,
// invalid entity values are dropped, and an intent outside the recognized
// set is an error.
func ParseModelOutput(raw string) (domain.IntentResult, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return domain.IntentResult{}, fmt.Errorf("ParseModelOutput: empty output: %w", ErrMalformedOutput)
	}

	var out modelOutput
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return domain.IntentResult{}, fmt.Errorf("ParseModelOutput: %v: %w", err, ErrMalformedOutput)
	}

	in := domain.Intent(strings.TrimSpace(strings.ToLower(out.Intent)))
	if !in.Recognized() {
		return domain.IntentResult{}, fmt.Errorf("ParseModelOutput: %q: %w", out.Intent, ErrUnrecognizedIntent)
	}

	return domain.IntentResult{Intent: in, Entities: normalizeEntities(out.Entities)}, nil
}

func normalizeEntities(raw map[string]any) domain.Entities {
	var e domain.Entities
	if raw == nil {
		return e
	}
	e.Amount = toAmount(raw["amount"])
	e.Category = strings.ToLower(toString(raw["category"]))
	e.GoalName = toString(raw["goal_name"])
	if d := toString(raw["date"]); d != "" {
		if t, err := domain.ParseDay(d); err == nil && t.Year() > MinDateYear {
			e.Date = t.Format(domain.DateLayout)
		}
	}
	return e
}

func toString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func toAmount(v any) *decimal.Decimal {
	var d decimal.Decimal
	switch x := v.(type) {
	case float64:
		d = decimal.NewFromFloat(x)
	case json.Number:
		parsed, err := decimal.NewFromString(x.String())
		if err != nil {
			return nil
		}
		d = parsed
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(x)
		if s == "" {
			return nil
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return nil
		}
		d = parsed
	default:
		return nil
	}
	d = d.Abs()
	return &d
}

// cleanModelJSON strips Markdown fences and any text around the outermost JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}
