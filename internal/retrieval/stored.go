package retrieval

import (
	"context"
	"fmt"

	"docchat/internal/models"
)

// VectorSearcher looks up already-embedded chunks for one document.
type VectorSearcher interface {
	FindSimilarChunks(ctx context.Context, queryVec []float32, documentID string, topK int) ([]models.ChunkMatch, error)
}

// StoredEmbeddingStrategy embeds only the question and delegates passage
// scoring to the vector store, for documents ingested ahead of time.
type StoredEmbeddingStrategy struct {
	embedder   Embedder
	search     VectorSearcher
	documentID string
	dim        int
}

func NewStoredEmbedding(embedder Embedder, search VectorSearcher, documentID string, dim int) *StoredEmbeddingStrategy {
	return &StoredEmbeddingStrategy{
		embedder:   embedder,
		search:     search,
		documentID: documentID,
		dim:        dim,
	}
}

func (s *StoredEmbeddingStrategy) Name() string { return "stored_embedding" }

func (s *StoredEmbeddingStrategy) Retrieve(ctx context.Context, question string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}
	qvecs, _, err := s.embedder.Embed(ctx, []string{question}, s.dim)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(qvecs) == 0 {
		return nil, fmt.Errorf("embed question: provider returned no vector")
	}
	matches, err := s.search.FindSimilarChunks(ctx, qvecs[0], s.documentID, topK)
	if err != nil {
		return nil, fmt.Errorf("stored embedding search: %w", err)
	}
	out := make([]Result, 0, len(matches))
	for _, m := range matches {
		out = append(out, Result{Text: m.Text, Score: m.Score})
	}
	return out, nil
}
