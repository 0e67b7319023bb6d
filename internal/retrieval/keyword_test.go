package retrieval

import (
	"context"
	"testing"

	"docchat/internal/models"
)

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("What are the payment terms of this agreement?")
	want := map[string]bool{"payment": true, "terms": true, "agreement": true}
	if len(got) != len(want) {
		t.Fatalf("expected %d keywords, got %v", len(want), got)
	}
	for _, kw := range got {
		if !want[kw] {
			t.Fatalf("unexpected keyword %q in %v", kw, got)
		}
	}
}

func TestKeywordRanksMatchingPassageFirst(t *testing.T) {
	passages := []models.Passage{
		{Text: "Nothing relevant appears in this passage at all."},
		{Text: "The payment terms require invoices within thirty days. Payment is monthly."},
	}
	s := NewKeyword(passages, 0.5, 0.95, 5)
	results, err := s.Retrieve(context.Background(), "What are the payment terms?", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != passages[1].Text {
		t.Fatalf("expected keyword-heavy passage first, got %q", results[0].Text)
	}
	for _, r := range results {
		if r.Score < 0.5 || r.Score > 0.95 {
			t.Fatalf("score %f outside [0.5, 0.95]", r.Score)
		}
	}
}

func TestKeywordNoKeywordsFallsToFirstK(t *testing.T) {
	passages := []models.Passage{{Text: "alpha"}, {Text: "beta"}, {Text: "gamma"}}
	s := NewKeyword(passages, 0.5, 0.95, 5)
	results, err := s.Retrieve(context.Background(), "What is the?", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected first 2 passages, got %d", len(results))
	}
	if results[0].Text != "alpha" || results[0].Score != 0.5 {
		t.Fatalf("expected first passage at floor score, got %+v", results[0])
	}
}

func TestKeywordEmptyPassages(t *testing.T) {
	s := NewKeyword(nil, 0.5, 0.95, 5)
	results, err := s.Retrieve(context.Background(), "anything relevant", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
