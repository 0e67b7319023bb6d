// Package activities implements the Temporal activities of the document
// ingestion pipeline: extract, chunk, embed, persist. Ingested documents are
// the ones the QA path can serve from stored embeddings.
package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docchat/internal/chunker"
	"docchat/internal/config"
	"docchat/internal/content"
	"docchat/internal/providers"
	"docchat/internal/storage"
	"docchat/internal/util"

	"go.temporal.io/sdk/temporal"
)

type Activities struct {
	cfg       config.Config
	docRepo   *storage.DocumentRepo
	chunkRepo *storage.ChunkRepo
	extractor content.Extractor
	pm        *providers.Manager
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(cfg.LLMProviders, cfg.EmbedProviders, cfg.EmbedDim)
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:       cfg,
		docRepo:   storage.NewDocumentRepo(db),
		chunkRepo: storage.NewChunkRepo(db),
		extractor: content.NewExtractor(),
		pm:        pm,
	}, nil
}

func (a *Activities) LoadDocumentActivity(ctx context.Context, in LoadDocumentInput) (LoadDocumentOutput, error) {
	doc, err := a.docRepo.GetDocument(ctx, in.DocumentID)
	if err != nil {
		return LoadDocumentOutput{}, err
	}
	raw, err := a.docRepo.GetFullDocumentContent(ctx, in.DocumentID)
	if err != nil {
		return LoadDocumentOutput{}, err
	}
	if raw == "" && doc.ExtractedText != "" {
		raw = doc.ExtractedText
	}
	return LoadDocumentOutput{Name: doc.Name, RawContent: raw}, nil
}

// ExtractTextActivity normalizes the raw payload to plain text and fills the
// extracted-text cache on the document row.
func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	cls := content.Detect(in.RawContent)
	text := in.RawContent
	if cls.Binary {
		text = a.extractor.Extract([]byte(in.RawContent), cls.Kind)
	}
	text = util.SanitizeText(text)
	if text == "" {
		return ExtractTextOutput{}, util.ErrNoExtractableText
	}
	if cls.Binary {
		if err := a.docRepo.UpdateExtractedContent(ctx, in.DocumentID, text); err != nil {
			return ExtractTextOutput{}, err
		}
	}
	return ExtractTextOutput{Text: text}, nil
}

func (a *Activities) ChunkTextActivity(ctx context.Context, in ChunkTextInput) (ChunkTextOutput, error) {
	_ = ctx
	size := in.ChunkSize
	if size <= 0 {
		size = a.cfg.ChunkSize
	}
	overlap := in.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = a.cfg.ChunkOverlap
	}
	parts := chunker.Chunk(in.Text, size, overlap)
	chunks := make([]ChunkItem, 0, len(parts))
	for idx, part := range parts {
		part = util.SanitizeText(part)
		if part == "" {
			continue
		}
		chunkID := util.SHA256Hex([]byte(fmt.Sprintf("%s:%d:%s", in.DocumentID, idx, util.SHA256Hex([]byte(part)))))
		chunks = append(chunks, ChunkItem{
			ChunkID:    chunkID,
			DocumentID: in.DocumentID,
			ChunkIndex: idx,
			Text:       part,
		})
	}
	return ChunkTextOutput{Chunks: chunks}, nil
}

// EmbedChunksActivity embeds chunk texts in serialized batches with an
// inter-batch delay, mirroring the rate-limit posture of the query path.
func (a *Activities) EmbedChunksActivity(ctx context.Context, in EmbedChunksInput) (EmbedChunksOutput, error) {
	batchSize := a.cfg.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}
	delay := time.Duration(a.cfg.EmbedBatchDelay) * time.Millisecond

	out := EmbedChunksOutput{Vectors: make([][]float32, 0, len(in.Chunks))}
	for i := 0; i < len(in.Chunks); i += batchSize {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return EmbedChunksOutput{}, ctx.Err()
			case <-time.After(delay):
			}
		}
		end := i + batchSize
		if end > len(in.Chunks) {
			end = len(in.Chunks)
		}
		inputs := make([]string, 0, end-i)
		for _, c := range in.Chunks[i:end] {
			inputs = append(inputs, c.Text)
		}
		vectors, info, err := a.pm.Embed(ctx, inputs, a.cfg.EmbedDim)
		if err != nil {
			// Retrying cannot help an exhausted quota or a permanently broken
			// provider; fail fast so the workflow ingests without vectors.
			if errors.Is(err, util.ErrQuotaExhausted) || errors.Is(err, util.ErrPermanent) {
				return EmbedChunksOutput{}, temporal.NewNonRetryableApplicationError("embed chunks", "EmbedFailure", err)
			}
			return EmbedChunksOutput{}, err
		}
		out.Vectors = append(out.Vectors, vectors...)
		out.ProviderName = info.Name
		out.Model = info.Model
	}
	return out, nil
}

func (a *Activities) UpsertChunksActivity(ctx context.Context, in UpsertChunksInput) error {
	records := make([]storage.ChunkRecord, 0, len(in.Chunks))
	for i, c := range in.Chunks {
		var embedding *string
		if i < len(in.Vectors) && len(in.Vectors[i]) > 0 {
			lit := storage.ToLiteral(in.Vectors[i])
			embedding = &lit
		}
		records = append(records, storage.ChunkRecord{
			ChunkID:         c.ChunkID,
			DocumentID:      c.DocumentID,
			ChunkIndex:      c.ChunkIndex,
			Text:            util.SanitizeText(c.Text),
			EmbeddingVector: embedding,
		})
	}
	return a.chunkRepo.UpsertChunks(ctx, records)
}

func (a *Activities) MarkDocumentIngestedActivity(ctx context.Context, in MarkDocumentIngestedInput) error {
	return a.docRepo.MarkIngested(ctx, in.DocumentID, in.HasEmbeddings)
}

func (a *Activities) UpdateDocumentStatusActivity(ctx context.Context, in UpdateDocumentStatusInput) error {
	return a.docRepo.UpdateDocumentStatus(ctx, in.DocumentID, in.Status, in.FailReason)
}
