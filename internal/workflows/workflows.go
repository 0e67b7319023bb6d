// Package workflows holds the Temporal workflow that ingests a document:
// extract, chunk, embed, persist, then flip the flags the QA retrieval path
// routes on.
package workflows

import (
	"strings"
	"time"

	"docchat/internal/activities"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetIngestProgress = "GetIngestProgress"

func DocumentIngestWorkflow(ctx workflow.Context, input DocumentIngestInput) (string, error) {
	progress := DocumentIngestProgress{
		DocumentID:  input.DocumentID,
		CurrentStep: "init",
		Status:      "processing",
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetIngestProgress, func() (DocumentIngestProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	fail := func(step, reason string) (string, error) {
		progress.Status = "failed"
		progress.FailReason = reason
		progress.Steps[step] = "failed"
		_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
			DocumentID: input.DocumentID,
			Status:     "failed",
			FailReason: reason,
		}).Get(ctx, nil)
		return progress.Status, nil
	}

	progress.CurrentStep = "load_document"
	progress.Steps[progress.CurrentStep] = "processing"
	var loadOut activities.LoadDocumentOutput
	if err := workflow.ExecuteActivity(ctx, "LoadDocumentActivity", activities.LoadDocumentInput{DocumentID: input.DocumentID}).Get(ctx, &loadOut); err != nil {
		return "", err
	}
	progress.Steps[progress.CurrentStep] = "done"

	_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
		DocumentID: input.DocumentID,
		Status:     "processing",
	}).Get(ctx, nil)

	progress.CurrentStep = "extract_text"
	progress.Steps[progress.CurrentStep] = "processing"
	var textOut activities.ExtractTextOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{
		DocumentID: input.DocumentID,
		RawContent: loadOut.RawContent,
	}).Get(ctx, &textOut); err != nil {
		if isNoTextError(err) {
			return fail(progress.CurrentStep, "no extractable text found in document")
		}
		return "", err
	}
	progress.Steps[progress.CurrentStep] = "done"

	progress.CurrentStep = "chunk_text"
	progress.Steps[progress.CurrentStep] = "processing"
	var chunkOut activities.ChunkTextOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkTextActivity", activities.ChunkTextInput{
		DocumentID:   input.DocumentID,
		Text:         textOut.Text,
		ChunkSize:    input.ChunkSize,
		ChunkOverlap: input.ChunkOverlap,
	}).Get(ctx, &chunkOut); err != nil {
		return "", err
	}
	if len(chunkOut.Chunks) == 0 {
		return fail(progress.CurrentStep, "document produced no chunks")
	}
	progress.ChunkCount = len(chunkOut.Chunks)
	progress.Steps[progress.CurrentStep] = "done"

	// An embedding outage should not block ingestion: chunks land without
	// vectors and the QA path degrades to keyword matching over them.
	progress.CurrentStep = "embed_chunks"
	progress.Steps[progress.CurrentStep] = "processing"
	hasEmbeddings := true
	var embedOut activities.EmbedChunksOutput
	if err := workflow.ExecuteActivity(ctx, "EmbedChunksActivity", activities.EmbedChunksInput{Chunks: chunkOut.Chunks}).Get(ctx, &embedOut); err != nil {
		hasEmbeddings = false
		embedOut = activities.EmbedChunksOutput{}
		progress.Steps[progress.CurrentStep] = "skipped"
	} else {
		progress.Steps[progress.CurrentStep] = "done"
	}

	progress.CurrentStep = "upsert_chunks"
	progress.Steps[progress.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "UpsertChunksActivity", activities.UpsertChunksInput{
		Chunks:  chunkOut.Chunks,
		Vectors: embedOut.Vectors,
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	progress.Steps[progress.CurrentStep] = "done"

	progress.CurrentStep = "mark_ingested"
	progress.Steps[progress.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "MarkDocumentIngestedActivity", activities.MarkDocumentIngestedInput{
		DocumentID:    input.DocumentID,
		HasEmbeddings: hasEmbeddings,
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	progress.Steps[progress.CurrentStep] = "done"
	progress.CurrentStep = "done"
	progress.Status = "processed"
	return progress.Status, nil
}

func isNoTextError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "no extractable text")
}
