package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/rs/zerolog"
)

// staticCategories is a fixed CategoryLister
type staticCategories map[string][]string

func (s staticCategories) Categories(retailer string) []string {
	return s[retailer]
}

func TestInferCategory_Scenarios(t *testing.T) {
	ctx := context.Background()
	lister := staticCategories{"tottus": {"Frutas y Verduras", "Lácteos", "Bebidas"}}

	tests := []struct {
		name           string
		response       string
		err            error
		wantCategory   string
		wantConfidence float64
	}{
		{
			name:           "exact allowed label",
			response:       `{"category": "Frutas y Verduras", "reasoning": "la manzana es una fruta"}`,
			wantCategory:   "Frutas y Verduras",
			wantConfidence: 0.85,
		},
		{
			name:           "allowed label with padding",
			response:       `{"category": "  Frutas y Verduras "}`,
			wantCategory:   "Frutas y Verduras",
			wantConfidence: 0.85,
		},
		{
			name:           "label outside the list",
			response:       `{"category": "Frutas", "reasoning": "es fruta"}`,
			wantCategory:   domain.Uncategorized,
			wantConfidence: 0.3,
		},
		{
			name:           "case mismatch is outside the list",
			response:       `{"category": "frutas y verduras"}`,
			wantCategory:   domain.Uncategorized,
			wantConfidence: 0.3,
		},
		{
			name:           "malformed answer",
			response:       `Frutas y Verduras`,
			wantCategory:   domain.Uncategorized,
			wantConfidence: 0.0,
		},
		{
			name:           "missing category field",
			response:       `{"reasoning": "no sé"}`,
			wantCategory:   domain.Uncategorized,
			wantConfidence: 0.0,
		},
		{
			name:           "provider failure",
			err:            errors.New("network unreachable"),
			wantCategory:   domain.Uncategorized,
			wantConfidence: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &MockChatCompleter{response: tt.response, err: tt.err}
			svc := NewCategoryInferenceService(completer, lister, 0, zerolog.Nop())

			got := svc.InferCategory(ctx, "MANZANA ROJA", "tottus")

			if got.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if got.Reasoning == "" {
				t.Errorf("Reasoning should not be empty")
			}
		})
	}
}

func TestInferCategory_NoCategories(t *testing.T) {
	completer := &MockChatCompleter{response: `{"category": "Lácteos"}`}
	svc := NewCategoryInferenceService(completer, staticCategories{}, 0, zerolog.Nop())

	got := svc.InferCategory(context.Background(), "LECHE", "metro")

	if got.Category != domain.Uncategorized || got.Confidence != 0.0 {
		t.Errorf("got %+v, want uncategorized at 0.0", got)
	}
	if completer.calls != 0 {
		t.Errorf("LLM called %d times, want 0", completer.calls)
	}
}

func TestInferCategory_Prompt(t *testing.T) {
	completer := &MockChatCompleter{response: `{"category": "Bebidas"}`}
	lister := staticCategories{"wong": {"Bebidas", "Snacks y dulces"}}
	svc := NewCategoryInferenceService(completer, lister, 0.2, zerolog.Nop())

	svc.InferCategory(context.Background(), "INCA KOLA 1.5L", "wong")

	for _, want := range []string{"INCA KOLA 1.5L", "- Bebidas", "- Snacks y dulces"} {
		if !strings.Contains(completer.lastPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, completer.lastPrompt)
		}
	}
}

func TestInferCategory_UsesNormalizerCategories(t *testing.T) {
	normalizer := NewCategoryNormalizer(testTaxonomy(), DefaultSynonymTables())
	completer := &MockChatCompleter{response: `{"category": "Frutas y Verduras"}`}
	svc := NewCategoryInferenceService(completer, normalizer, 0, zerolog.Nop())

	got := svc.InferCategory(context.Background(), "MANZANA ROJA", "tottus")

	if got.Category != "Frutas y Verduras" || got.Confidence < 0.85 {
		t.Errorf("got %+v, want Frutas y Verduras >= 0.85", got)
	}
}

func TestInferCategory_Reasoning(t *testing.T) {
	lister := staticCategories{"tottus": {"Frutas y Verduras", "Lácteos"}}

	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"model reasoning kept", `{"category": "Lácteos", "reasoning": "  es leche  "}`, "es leche"},
		{"blank reasoning gets a default", `{"category": "Lácteos", "reasoning": "   "}`, `model chose "Lácteos" from the allowed list`},
		{"missing reasoning gets a default", `{"category": "Lácteos"}`, `model chose "Lácteos" from the allowed list`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &MockChatCompleter{response: tt.response}
			svc := NewCategoryInferenceService(completer, lister, 0, zerolog.Nop())

			got := svc.InferCategory(context.Background(), "LECHE GLORIA", "tottus")

			if got.Category != "Lácteos" || got.Confidence != 0.85 {
				t.Errorf("got %+v, want Lácteos at 0.85", got)
			}
			if got.Reasoning != tt.want {
				t.Errorf("Reasoning = %q, want %q", got.Reasoning, tt.want)
			}
		})
	}
}
