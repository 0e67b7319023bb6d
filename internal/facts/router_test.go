package facts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"docchat/internal/providers"
)

type fakeGen struct {
	text string
	err  error
	last providers.GenerateRequest
}

func (f *fakeGen) Generate(_ context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	f.last = req
	return providers.GenerateResponse{Text: f.text}, providers.ProviderInfo{Name: "fake"}, f.err
}

func TestMatchCategories(t *testing.T) {
	r := NewRouter(&fakeGen{}, 0.1, 100)
	cases := []struct {
		question string
		category string
		ok       bool
	}{
		{"What type of document is this?", "document_type", true},
		{"Who are the parties involved?", "parties", true},
		{"Who are the parties?", "parties", true},
		{"What are the payment terms?", "financial_terms", true},
		{"When is the effective date?", "dates_deadlines", true},
		{"What risks does this contract carry?", "risks", true},
		{"What are my obligations?", "obligations", true},
		{"How do I terminate the agreement?", "termination", true},
		{"What are the key clauses?", "critical_clauses", true},
		{"What color is the sky?", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		category, ok := r.Match(tc.question)
		if ok != tc.ok || category != tc.category {
			t.Fatalf("Match(%q) = (%q, %v), want (%q, %v)", tc.question, category, ok, tc.category, tc.ok)
		}
	}
}

func TestAnswerFromFacts(t *testing.T) {
	gen := &fakeGen{text: "The parties are Acme Corp and Beta Corp."}
	r := NewRouter(gen, 0.1, 100)
	facts := json.RawMessage(`{"parties":["Acme Corp","Beta Corp"]}`)

	answer, err := r.AnswerFromFacts(context.Background(), "Who are the parties?", facts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "Acme Corp") {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if len(gen.last.Context) != 1 || !strings.Contains(gen.last.Context[0], "Acme Corp") {
		t.Fatalf("facts not grounded into generation context: %v", gen.last.Context)
	}
}

func TestAnswerFromFactsEmptyFacts(t *testing.T) {
	r := NewRouter(&fakeGen{text: "x"}, 0.1, 100)
	if _, err := r.AnswerFromFacts(context.Background(), "Who are the parties?", nil); err == nil {
		t.Fatal("expected error for empty facts")
	}
}

func TestAnswerFromFactsNoMatch(t *testing.T) {
	r := NewRouter(&fakeGen{text: "x"}, 0.1, 100)
	if _, err := r.AnswerFromFacts(context.Background(), "What color is the sky?", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for unmatched question")
	}
}

func TestAnswerFromFactsGenerationFailure(t *testing.T) {
	r := NewRouter(&fakeGen{err: errors.New("provider down")}, 0.1, 100)
	if _, err := r.AnswerFromFacts(context.Background(), "Who are the parties?", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error when generation fails")
	}
}
