package intent

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// ContentGenerator is the part of the genai client the resolver calls.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiResolver classifies with a Gemini model in JSON response mode.
type GeminiResolver struct {
	models ContentGenerator
	model  string
}

// NewGeminiClient creates a genai client configured from the environment
// (GOOGLE_API_KEY / GEMINI_API_KEY or Vertex AI settings).
func NewGeminiClient(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClient: create genai client: %w", err)
	}
	return client, nil
}

// NewGeminiResolver creates a resolver over models, usually client.Models.
func NewGeminiResolver(models ContentGenerator, model string) *GeminiResolver {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiResolver{models: models, model: model}
}

// Resolve implements Resolver.
func (r *GeminiResolver) Resolve(ctx context.Context, req Request) (domain.IntentResult, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: BuildPrompt(req)}},
		},
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SystemInstruction}}},
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0),
	}

	resp, err := r.models.GenerateContent(ctx, r.model, contents, config)
	if err != nil {
		return domain.IntentResult{}, fmt.Errorf("GeminiResolver: generate content: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return domain.IntentResult{}, fmt.Errorf("GeminiResolver: empty response from model: %w", ErrMalformedOutput)
	}
	res, err := ParseModelOutput(raw)
	if err != nil {
		return domain.IntentResult{}, fmt.Errorf("GeminiResolver: %w", err)
	}
	return res, nil
}

// Ensure GeminiResolver implements Resolver.
var _ Resolver = (*GeminiResolver)(nil)
