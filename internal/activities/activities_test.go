package activities

import (
	"context"
	"errors"
	"testing"

	"docchat/internal/config"
	"docchat/internal/providers"

	"go.temporal.io/sdk/temporal"
)

func TestEmbedChunksActivityNonRetryableOnPermanentFailure(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	pm, err := providers.NewManager("", "openai", 8)
	if err != nil {
		t.Fatal(err)
	}
	a := &Activities{cfg: config.Config{EmbedDim: 8, EmbedBatchSize: 20}, pm: pm}

	_, err = a.EmbedChunksActivity(context.Background(), EmbedChunksInput{
		Chunks: []ChunkItem{{ChunkID: "c1", DocumentID: "d1", Text: "clause"}},
	})
	if err == nil {
		t.Fatal("expected embedding failure without a key")
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || !appErr.NonRetryable() {
		t.Fatalf("expected non-retryable application error, got %v", err)
	}
}
