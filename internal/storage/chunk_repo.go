package storage

import (
	"context"
	"fmt"

	"docchat/internal/models"
)

type ChunkRecord struct {
	ChunkID         string
	DocumentID      string
	ChunkIndex      int
	Text            string
	EmbeddingVector *string
}

type ChunkRepo struct {
	db *DB
}

func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) UpsertChunks(ctx context.Context, chunks []ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx upsert chunks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, c := range chunks {
		_, err := tx.Exec(ctx, `
INSERT INTO document_chunks (chunk_id, document_id, chunk_index, text, embedding)
VALUES ($1, $2, $3, $4, CASE WHEN $5::text IS NULL THEN NULL ELSE $5::vector END)
ON CONFLICT (chunk_id)
DO UPDATE SET
  text = EXCLUDED.text,
  embedding = COALESCE(EXCLUDED.embedding, document_chunks.embedding)`,
			c.ChunkID, c.DocumentID, c.ChunkIndex, c.Text, c.EmbeddingVector,
		)
		if err != nil {
			return fmt.Errorf("upsert chunk %s: %w", c.ChunkID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *ChunkRepo) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM document_chunks WHERE document_id=$1`, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

func (r *ChunkRepo) ListChunksByDocument(ctx context.Context, documentID string) ([]models.Passage, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT text
FROM document_chunks
WHERE document_id=$1
ORDER BY chunk_index ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks by document: %w", err)
	}
	defer rows.Close()
	out := make([]models.Passage, 0, 64)
	for rows.Next() {
		var p models.Passage
		if err := rows.Scan(&p.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}
