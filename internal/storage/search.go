package storage

import (
	"context"
	"fmt"
	"strings"

	"docchat/internal/models"

	"github.com/jackc/pgx/v5"
)

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Searcher runs pgvector cosine similarity over a single document's stored
// chunk embeddings.
type Searcher struct {
	q Queryer
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

func (s *Searcher) FindSimilarChunks(ctx context.Context, queryVec []float32, documentID string, topK int) ([]models.ChunkMatch, error) {
	if topK <= 0 {
		topK = 5
	}
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	rows, err := s.q.Query(ctx, `
SELECT chunk_id,
       text,
       1 - (embedding <=> $2::vector) AS score
FROM document_chunks
WHERE document_id = $1
  AND embedding IS NOT NULL
ORDER BY embedding <=> $2::vector
LIMIT $3`, documentID, ToLiteral(queryVec), topK)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]models.ChunkMatch, 0, topK)
	for rows.Next() {
		var m models.ChunkMatch
		if err := rows.Scan(&m.ChunkID, &m.Text, &m.Score); err != nil {
			return nil, fmt.Errorf("scan chunk match: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%f", x))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
