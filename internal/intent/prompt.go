package intent

import (
	"strings"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/goccy/go-json"
)

// SystemInstruction tells the model to answer with a single JSON object.
var SystemInstruction = "You classify messages sent to a personal finance assistant.\n\n" +
	"Output STRICT JSON only: one object, no comments, no Markdown, no code fences.\n" +
	"Shape: {\"intent\": string, \"entities\": {\"amount\": number, \"category\": string, \"goal_name\": string, \"date\": \"YYYY-MM-DD\"}}\n" +
	"Omit entities that are not mentioned.\n\n" +
	"Allowed intents:\n" + intentList() +
	"\nRules:\n" +
	"- amount is a positive number without currency symbols.\n" +
	"- category is a single lower-case word such as groceries, rent, dining, transport.\n" +
	"- goal_name is only set for add_goal_contribution and must name the goal as the user wrote it.\n" +
	"- Use \"unknown\" when nothing fits.\n"

func intentList() string {
	var b strings.Builder
	for _, in := range domain.Intents {
		b.WriteString("- ")
		b.WriteString(string(in))
		b.WriteString("\n")
	}
	b.WriteString("- unknown\n")
	return b.String()
}

// BuildPrompt renders the user-side prompt from a request.
func BuildPrompt(req Request) string {
	var b strings.Builder
	if req.Summary != nil {
		if data, err := json.Marshal(req.Summary); err == nil {
			b.WriteString("Financial summary:\n")
			b.Write(data)
			b.WriteString("\n\n")
		}
	}
	if strings.TrimSpace(req.ContextText) != "" {
		b.WriteString("Relevant context:\n")
		b.WriteString(req.ContextText)
		b.WriteString("\n\n")
	}
	if strings.TrimSpace(req.History) != "" {
		b.WriteString("Recent conversation:\n")
		b.WriteString(req.History)
		b.WriteString("\n\n")
	}
	b.WriteString("Message:\n")
	b.WriteString(req.Message)
	return b.String()
}
