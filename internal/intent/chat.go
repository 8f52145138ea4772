package intent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/goccy/go-json"
)

// DefaultContentPath locates the reply text in an OpenAI-style response.
const DefaultContentPath = "$.choices[0].message.content"

// ChatCompletionsConfig configures a ChatCompletionsResolver.
type ChatCompletionsConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	// ContentPath is a JSONPath into the response body. Defaults to DefaultContentPath.
	ContentPath string
}

// ChatCompletionsResolver classifies with any OpenAI-compatible
// /chat/completions endpoint.
type ChatCompletionsResolver struct {
	client *http.Client
	cfg    ChatCompletionsConfig
}

// NewChatCompletionsResolver creates a resolver. A nil client means http.DefaultClient.
func NewChatCompletionsResolver(client *http.Client, cfg ChatCompletionsConfig) *ChatCompletionsResolver {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.ContentPath == "" {
		cfg.ContentPath = DefaultContentPath
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ChatCompletionsResolver{client: client, cfg: cfg}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

// Resolve implements Resolver.
func (r *ChatCompletionsResolver) Resolve(ctx context.Context, req Request) (domain.IntentResult, error) {
	body, err := json.Marshal(chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemInstruction},
			{Role: "user", Content: BuildPrompt(req)},
		},
		ResponseFormat: map[string]any{"type": "json_object"},
	})
	if err != nil {
		return domain.IntentResult{}, fmt.Errorf("ChatCompletionsResolver: encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return domain.IntentResult{}, fmt.Errorf("ChatCompletionsResolver: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return domain.IntentResult{}, fmt.Errorf("ChatCompletionsResolver: calling model: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.IntentResult{}, fmt.Errorf("ChatCompletionsResolver: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.IntentResult{}, fmt.Errorf("ChatCompletionsResolver: status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	content, err := extractContent(data, r.cfg.ContentPath)
	if err != nil {
		return domain.IntentResult{}, fmt.Errorf("ChatCompletionsResolver: %w", err)
	}
	res, err := ParseModelOutput(content)
	if err != nil {
		return domain.IntentResult{}, fmt.Errorf("ChatCompletionsResolver: %w", err)
	}
	return res, nil
}

func extractContent(data []byte, path string) (string, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("decoding response: %v: %w", err, ErrMalformedOutput)
	}
	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return "", fmt.Errorf("evaluating %q: %v: %w", path, err, ErrMalformedOutput)
	}
	// jsonpath may return a list of one answer or the answer itself.
	if list, ok := val.([]any); ok {
		if len(list) == 0 {
			return "", fmt.Errorf("no value at %q: %w", path, ErrMalformedOutput)
		}
		val = list[0]
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("value at %q is %T, not text: %w", path, val, ErrMalformedOutput)
	}
	return s, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ensure ChatCompletionsResolver implements Resolver.
var _ Resolver = (*ChatCompletionsResolver)(nil)
