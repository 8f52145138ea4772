package intent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

type mockGenerator struct {
	text   string
	err    error
	model  string
	config *genai.GenerateContentConfig
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.model = model
	m.config = config
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: m.text}}}},
		},
	}, nil
}

func TestGeminiResolver(t *testing.T) {
	gen := &mockGenerator{text: `{"intent":"ask_budget_status","entities":{}}`}
	r := NewGeminiResolver(gen, "")

	res, err := r.Resolve(context.Background(), Request{Message: "how are my budgets?"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Intent != domain.IntentAskBudgetStatus {
		t.Errorf("Intent = %q", res.Intent)
	}
	if gen.model != DefaultGeminiModel {
		t.Errorf("model = %q, want %q", gen.model, DefaultGeminiModel)
	}
	if gen.config == nil || gen.config.ResponseMIMEType != "application/json" {
		t.Errorf("expected JSON response mode, got %+v", gen.config)
	}
}

func TestGeminiResolver_MalformedOutput(t *testing.T) {
	r := NewGeminiResolver(&mockGenerator{text: "I think you want a budget"}, "m")
	_, err := r.Resolve(context.Background(), Request{Message: "x"})
	if !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("err = %v, want ErrMalformedOutput", err)
	}
}

func TestChatCompletionsResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Model != "gpt-test" || len(body.Messages) != 2 || !strings.Contains(body.Messages[1].Content, "got paid 2500") {
			t.Errorf("unexpected request %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"intent\":\"add_income\",\"entities\":{\"amount\":2500}}"}}]}`))
	}))
	defer srv.Close()

	r := NewChatCompletionsResolver(srv.Client(), ChatCompletionsConfig{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "gpt-test"})
	res, err := r.Resolve(context.Background(), Request{Message: "got paid 2500"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Intent != domain.IntentAddIncome || res.Entities.Amount == nil || res.Entities.Amount.String() != "2500" {
		t.Errorf("result = %+v", res)
	}
}

func TestChatCompletionsResolver_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"missing content", http.StatusOK, `{"choices":[]}`},
		{"content not text", http.StatusOK, `{"choices":[{"message":{"content":42}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			r := NewChatCompletionsResolver(srv.Client(), ChatCompletionsConfig{BaseURL: srv.URL})
			if _, err := r.Resolve(context.Background(), Request{Message: "x"}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFallbackResolver(t *testing.T) {
	rules := NewRuleClassifier(fixedNow)

	t.Run("primary answers", func(t *testing.T) {
		primary := ResolverFunc(func(ctx context.Context, req Request) (domain.IntentResult, error) {
			return domain.IntentResult{Intent: domain.IntentHealthCheck}, nil
		})
		r := NewFallbackResolver(primary, rules, time.Second, zerolog.Nop())
		res, _ := r.Resolve(context.Background(), Request{Message: "I spent $5 on coffee"})
		if res.Intent != domain.IntentHealthCheck {
			t.Errorf("Intent = %q, want primary result", res.Intent)
		}
	})

	t.Run("primary fails", func(t *testing.T) {
		primary := ResolverFunc(func(ctx context.Context, req Request) (domain.IntentResult, error) {
			return domain.IntentResult{}, errors.New("connection refused")
		})
		r := NewFallbackResolver(primary, rules, time.Second, zerolog.Nop())
		res, err := r.Resolve(context.Background(), Request{Message: "I spent $5 on coffee"})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if res.Intent != domain.IntentAddTransaction || res.Entities.Category != "coffee" {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("primary times out", func(t *testing.T) {
		primary := ResolverFunc(func(ctx context.Context, req Request) (domain.IntentResult, error) {
			time.Sleep(200 * time.Millisecond)
			return domain.IntentResult{Intent: domain.IntentHealthCheck}, nil
		})
		r := NewFallbackResolver(primary, rules, 20*time.Millisecond, zerolog.Nop())
		start := time.Now()
		res, _ := r.Resolve(context.Background(), Request{Message: "show my transactions"})
		if time.Since(start) > 150*time.Millisecond {
			t.Error("fallback waited for slow primary")
		}
		if res.Intent != domain.IntentShowTransactions {
			t.Errorf("Intent = %q", res.Intent)
		}
	})

	t.Run("no primary", func(t *testing.T) {
		r := NewFallbackResolver(nil, nil, 0, zerolog.Nop())
		res, _ := r.Resolve(context.Background(), Request{Message: "how am I doing"})
		if res.Intent != domain.IntentHealthCheck {
			t.Errorf("Intent = %q", res.Intent)
		}
	})
}
