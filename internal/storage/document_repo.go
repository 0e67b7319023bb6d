package storage

import (
	"context"
	"errors"
	"fmt"

	"docchat/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) UpsertDocument(ctx context.Context, d models.Document) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (document_id, name, raw_content, extracted_text, structured_facts, is_chunked_externally, has_stored_embeddings, status, fail_reason)
VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5, $6, $7, $8, NULLIF($9,''))
ON CONFLICT (document_id)
DO UPDATE SET
  name = EXCLUDED.name,
  raw_content = COALESCE(EXCLUDED.raw_content, documents.raw_content),
  extracted_text = COALESCE(EXCLUDED.extracted_text, documents.extracted_text),
  structured_facts = COALESCE(EXCLUDED.structured_facts, documents.structured_facts),
  is_chunked_externally = EXCLUDED.is_chunked_externally,
  has_stored_embeddings = EXCLUDED.has_stored_embeddings,
  status = EXCLUDED.status,
  fail_reason = EXCLUDED.fail_reason,
  updated_at = NOW()`,
		d.DocumentID, d.Name, d.RawContent, d.ExtractedText, d.StructuredFacts,
		d.IsChunkedExternally, d.HasStoredEmbeddings, d.Status, d.FailReason,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// GetDocument returns the document row without raw_content; the full payload
// is fetched separately via GetFullDocumentContent to keep metadata reads
// cheap.
func (r *DocumentRepo) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	var d models.Document
	err := r.db.Pool.QueryRow(ctx, `
SELECT document_id, name, COALESCE(extracted_text,''), structured_facts,
       is_chunked_externally, has_stored_embeddings, status, COALESCE(fail_reason,''),
       created_at, updated_at
FROM documents
WHERE document_id=$1`, documentID).Scan(
		&d.DocumentID, &d.Name, &d.ExtractedText, &d.StructuredFacts,
		&d.IsChunkedExternally, &d.HasStoredEmbeddings, &d.Status, &d.FailReason,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

func (r *DocumentRepo) GetFullDocumentContent(ctx context.Context, documentID string) (string, error) {
	var content string
	err := r.db.Pool.QueryRow(ctx, `
SELECT COALESCE(raw_content,'') FROM documents WHERE document_id=$1`, documentID).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrDocumentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get document content: %w", err)
	}
	return content, nil
}

// UpdateExtractedContent is the cache fill after binary extraction. Callers
// treat failures as best-effort.
func (r *DocumentRepo) UpdateExtractedContent(ctx context.Context, documentID, text string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE documents SET extracted_text=$2, updated_at=NOW() WHERE document_id=$1`, documentID, text)
	if err != nil {
		return fmt.Errorf("update extracted content: %w", err)
	}
	return nil
}

func (r *DocumentRepo) UpdateDocumentStatus(ctx context.Context, documentID, status, failReason string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE documents SET status=$2, fail_reason=NULLIF($3,''), updated_at=NOW() WHERE document_id=$1`,
		documentID, status, failReason)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

// MarkIngested flips the flags the retrieval path routes on once the
// ingestion pipeline has chunked and embedded a document.
func (r *DocumentRepo) MarkIngested(ctx context.Context, documentID string, hasEmbeddings bool) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE documents
SET is_chunked_externally=TRUE, has_stored_embeddings=$2, status='processed', fail_reason=NULL, updated_at=NOW()
WHERE document_id=$1`, documentID, hasEmbeddings)
	if err != nil {
		return fmt.Errorf("mark document ingested: %w", err)
	}
	return nil
}
