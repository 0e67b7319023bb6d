package models

import (
	"encoding/json"
	"time"
)

// Document is the unit the QA pipeline answers questions about. Rows are
// created by the upload endpoint or the ingestion pipeline; the QA path only
// reads them, except for the extracted-text cache fill.
type Document struct {
	DocumentID          string          `json:"document_id"`
	Name                string          `json:"name"`
	RawContent          string          `json:"raw_content,omitempty"`
	ExtractedText       string          `json:"extracted_text,omitempty"`
	StructuredFacts     json.RawMessage `json:"structured_facts,omitempty"`
	IsChunkedExternally bool            `json:"is_chunked_externally"`
	HasStoredEmbeddings bool            `json:"has_stored_embeddings"`
	Status              string          `json:"status"`
	FailReason          string          `json:"fail_reason,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Passage is a retrieval unit: a bounded, possibly overlapping slice of a
// document. Immutable once created.
type Passage struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// ChunkMatch is one row of a stored-embedding similarity search.
type ChunkMatch struct {
	ChunkID string  `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}
