package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docchat/internal/models"
	"docchat/internal/providers"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	// failFrom fails every call starting at this 1-based call number. Zero
	// means never fail.
	failFrom int
	calls    int
	// empty returns a successful response carrying no vectors.
	empty bool
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string, _ int) ([][]float32, providers.ProviderInfo, error) {
	f.calls++
	if f.empty {
		return [][]float32{}, providers.ProviderInfo{Name: "fake"}, nil
	}
	if f.failFrom > 0 && f.calls >= f.failFrom {
		return nil, providers.ProviderInfo{}, errors.New("embedding provider unavailable")
	}
	out := make([][]float32, 0, len(inputs))
	for _, in := range inputs {
		v, ok := f.vectors[in]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out = append(out, v)
	}
	return out, providers.ProviderInfo{Name: "fake"}, nil
}

func TestEmbeddingRanksByCosine(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"what is alpha": {1, 0, 0},
		"alpha passage": {1, 0.1, 0},
		"beta passage":  {0, 1, 0},
	}}
	passages := []models.Passage{{Text: "beta passage"}, {Text: "alpha passage"}}
	s := NewEmbedding(emb, passages, 3, 20, 0)
	results, err := s.Retrieve(context.Background(), "what is alpha", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != "alpha passage" {
		t.Fatalf("expected alpha passage first, got %q", results[0].Text)
	}
	if results[0].Score <= results[1].Score {
		t.Fatal("scores not descending")
	}
}

func TestEmbeddingQuestionFailureReturnsError(t *testing.T) {
	emb := &fakeEmbedder{failFrom: 1}
	s := NewEmbedding(emb, []models.Passage{{Text: "p"}}, 3, 20, 0)
	if _, err := s.Retrieve(context.Background(), "q", 5); err == nil {
		t.Fatal("expected error when question embedding fails")
	}
}

func TestEmbeddingPassageFailureDegradesToFirstK(t *testing.T) {
	emb := &fakeEmbedder{failFrom: 2}
	passages := []models.Passage{{Text: "one"}, {Text: "two"}, {Text: "three"}}
	s := NewEmbedding(emb, passages, 3, 20, 0)
	results, err := s.Retrieve(context.Background(), "q", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected first 2 passages, got %d", len(results))
	}
	if results[0].Text != "one" || results[0].Score != 1.0 {
		t.Fatalf("expected degraded first passage at score 1.0, got %+v", results[0])
	}
}

func TestEmbeddingEmptyVectorResponseErrors(t *testing.T) {
	s := NewEmbedding(&fakeEmbedder{empty: true}, []models.Passage{{Text: "p"}}, 3, 20, 0)
	_, err := s.Retrieve(context.Background(), "q", 5)
	if err == nil {
		t.Fatal("expected error when provider returns no vectors")
	}
	if strings.Contains(err.Error(), "%!w") {
		t.Fatalf("malformed error message: %v", err)
	}
}

func TestEmbeddingEmptyPassages(t *testing.T) {
	s := NewEmbedding(&fakeEmbedder{}, nil, 3, 20, 0)
	results, err := s.Retrieve(context.Background(), "q", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
