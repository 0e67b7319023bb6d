package rank

import (
	"math"
	"testing"

	"docchat/internal/models"
)

func TestCosineSimilarityOrthogonal(t *testing.T) {
	got := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if got != 0 {
		t.Fatalf("expected 0 for orthogonal vectors, got %f", got)
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	got := CosineSimilarity([]float32{1, 1, 1}, []float32{1, 1, 1})
	if math.Abs(got-1.0) > 1e-6 {
		t.Fatalf("expected ~1 for identical vectors, got %f", got)
	}
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Fatalf("expected 0 for mismatched dimensions, got %f", got)
	}
	if got := CosineSimilarity(nil, nil); got != 0 {
		t.Fatalf("expected 0 for empty vectors, got %f", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Fatalf("expected 0 for zero-norm vector, got %f", got)
	}
}

func TestRankOrdersByScore(t *testing.T) {
	passages := []models.Passage{
		{Text: "far", Embedding: []float32{0, 1}},
		{Text: "near", Embedding: []float32{1, 0.1}},
		{Text: "exact", Embedding: []float32{1, 0}},
	}
	scored := Rank([]float32{1, 0}, passages)
	if len(scored) != 3 {
		t.Fatalf("expected 3 scored passages, got %d", len(scored))
	}
	if scored[0].Passage.Text != "exact" || scored[1].Passage.Text != "near" {
		t.Fatalf("unexpected order: %q then %q", scored[0].Passage.Text, scored[1].Passage.Text)
	}
	if scored[0].Score < scored[1].Score || scored[1].Score < scored[2].Score {
		t.Fatal("scores not descending")
	}
}
