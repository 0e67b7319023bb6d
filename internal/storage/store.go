package storage

import (
	"context"

	"docchat/internal/models"
)

// Store bundles the repos behind the narrow surface the QA service consumes.
type Store struct {
	Documents *DocumentRepo
	Chunks    *ChunkRepo
	Searcher  *Searcher
}

func NewStore(db *DB) *Store {
	return &Store{
		Documents: NewDocumentRepo(db),
		Chunks:    NewChunkRepo(db),
		Searcher:  NewSearcher(db.Pool),
	}
}

func (s *Store) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	return s.Documents.GetDocument(ctx, documentID)
}

func (s *Store) GetFullDocumentContent(ctx context.Context, documentID string) (string, error) {
	return s.Documents.GetFullDocumentContent(ctx, documentID)
}

func (s *Store) UpdateExtractedContent(ctx context.Context, documentID, text string) error {
	return s.Documents.UpdateExtractedContent(ctx, documentID, text)
}

func (s *Store) ListDocumentChunks(ctx context.Context, documentID string) ([]models.Passage, error) {
	return s.Chunks.ListChunksByDocument(ctx, documentID)
}

func (s *Store) FindSimilarChunks(ctx context.Context, queryVec []float32, documentID string, topK int) ([]models.ChunkMatch, error) {
	return s.Searcher.FindSimilarChunks(ctx, queryVec, documentID, topK)
}
