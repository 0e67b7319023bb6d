package rank

import (
	"math"
	"sort"

	"docchat/internal/models"
)

// Scored pairs a passage with its similarity to the question embedding.
type Scored struct {
	Passage models.Passage
	Score   float64
}

// CosineSimilarity returns dot(a,b)/(|a||b|). Mismatched lengths, empty
// inputs, and zero-magnitude vectors all score 0 rather than erroring.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores passages against the question embedding and returns them in
// descending score order. Ties keep encounter order.
func Rank(questionEmbedding []float32, passages []models.Passage) []Scored {
	out := make([]Scored, 0, len(passages))
	for _, p := range passages {
		out = append(out, Scored{
			Passage: p,
			Score:   CosineSimilarity(questionEmbedding, p.Embedding),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
