package retrieval

import (
	"context"
	"fmt"
	"time"

	"docchat/internal/models"
	"docchat/internal/providers"
	"docchat/internal/rank"
)

// Embedder is the slice of the provider manager the strategies need.
type Embedder interface {
	Embed(ctx context.Context, inputs []string, dim int) ([][]float32, providers.ProviderInfo, error)
}

// EmbeddingStrategy embeds the question and the passages, then ranks by
// cosine similarity. Passage embedding runs in serialized batches with an
// inter-batch delay to stay inside provider rate limits.
//
// A question-embedding failure is returned as an error so the caller can
// fall through to keyword matching. A passage-embedding failure after the
// question succeeded degrades to the first topK passages unscored instead,
// so retrieval still produces something to compose from.
type EmbeddingStrategy struct {
	embedder   Embedder
	passages   []models.Passage
	dim        int
	batchSize  int
	batchDelay time.Duration
}

func NewEmbedding(embedder Embedder, passages []models.Passage, dim, batchSize int, batchDelay time.Duration) *EmbeddingStrategy {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &EmbeddingStrategy{
		embedder:   embedder,
		passages:   passages,
		dim:        dim,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

func (s *EmbeddingStrategy) Name() string { return "fresh_embedding" }

func (s *EmbeddingStrategy) Retrieve(ctx context.Context, question string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}
	if len(s.passages) == 0 {
		return []Result{}, nil
	}
	qvecs, _, err := s.embedder.Embed(ctx, []string{question}, s.dim)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(qvecs) == 0 {
		return nil, fmt.Errorf("embed question: provider returned no vector")
	}

	embedded, err := s.embedPassages(ctx)
	if err != nil {
		return firstK(s.passages, topK, 1.0), nil
	}

	scored := rank.Rank(qvecs[0], embedded)
	if len(scored) > topK {
		scored = scored[:topK]
	}
	out := make([]Result, 0, len(scored))
	for _, sc := range scored {
		out = append(out, Result{Text: sc.Passage.Text, Score: sc.Score})
	}
	return out, nil
}

func (s *EmbeddingStrategy) embedPassages(ctx context.Context) ([]models.Passage, error) {
	out := make([]models.Passage, 0, len(s.passages))
	for i := 0; i < len(s.passages); i += s.batchSize {
		if i > 0 && s.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}
		end := i + s.batchSize
		if end > len(s.passages) {
			end = len(s.passages)
		}
		inputs := make([]string, 0, end-i)
		for _, p := range s.passages[i:end] {
			inputs = append(inputs, p.Text)
		}
		vectors, _, err := s.embedder.Embed(ctx, inputs, s.dim)
		if err != nil {
			return nil, fmt.Errorf("embed passage batch: %w", err)
		}
		for j, p := range s.passages[i:end] {
			out = append(out, models.Passage{Text: p.Text, Embedding: vectors[j]})
		}
	}
	return out, nil
}

func firstK(passages []models.Passage, k int, score float64) []Result {
	if k > len(passages) {
		k = len(passages)
	}
	out := make([]Result, 0, k)
	for _, p := range passages[:k] {
		out = append(out, Result{Text: p.Text, Score: score})
	}
	return out
}
