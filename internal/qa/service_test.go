package qa

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"docchat/internal/config"
	"docchat/internal/models"
	"docchat/internal/providers"
	"docchat/internal/storage"
)

type fakeStore struct {
	doc           *models.Document
	passages      []models.Passage
	searchResults []models.ChunkMatch
	searchErr     error
	getCalls      int
}

func (f *fakeStore) GetDocument(_ context.Context, documentID string) (*models.Document, error) {
	f.getCalls++
	if f.doc == nil || f.doc.DocumentID != documentID {
		return nil, storage.ErrDocumentNotFound
	}
	return f.doc, nil
}

func (f *fakeStore) GetFullDocumentContent(_ context.Context, _ string) (string, error) {
	if f.doc == nil {
		return "", storage.ErrDocumentNotFound
	}
	return f.doc.RawContent, nil
}

func (f *fakeStore) UpdateExtractedContent(_ context.Context, _, _ string) error { return nil }

func (f *fakeStore) ListDocumentChunks(_ context.Context, _ string) ([]models.Passage, error) {
	return f.passages, nil
}

func (f *fakeStore) FindSimilarChunks(_ context.Context, _ []float32, _ string, _ int) ([]models.ChunkMatch, error) {
	return f.searchResults, f.searchErr
}

func testConfig() config.Config {
	return config.Config{
		ChunkSize:         200,
		ChunkOverlap:      20,
		RetrieveTopK:      5,
		SourceLimit:       3,
		EmbedDim:          8,
		EmbedBatchSize:    20,
		EmbedBatchDelay:   0,
		KeywordScoreFloor: 0.5,
		KeywordScoreCeil:  0.95,
		KeywordScoreScale: 5,
		InlineCacheSize:   8,
		InlineCacheTTLMin: 1,
		AnswerTemperature: 0.1,
		AnswerMaxTokens:   200,
		ContextTokenLimit: 3000,
	}
}

func mustManager(t *testing.T, llm, embed string) *providers.Manager {
	t.Helper()
	pm, err := providers.NewManager(llm, embed, 8)
	if err != nil {
		t.Fatal(err)
	}
	return pm
}

func TestAnswerFromStructuredFacts(t *testing.T) {
	store := &fakeStore{doc: &models.Document{
		DocumentID:      "doc-1",
		Name:            "msa.pdf",
		ExtractedText:   "This agreement is between two companies.",
		StructuredFacts: json.RawMessage(`{"parties":["Acme Corp","Beta Corp"]}`),
	}}
	svc := NewService(testConfig(), store, mustManager(t, "mock", "mock"))

	resp, err := svc.AnswerQuestion(context.Background(), Request{DocumentID: "doc-1", Question: "Who are the parties?"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Answer, "Acme Corp") || !strings.Contains(resp.Answer, "Beta Corp") {
		t.Fatalf("facts answer not grounded in fact record: %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Score != 1.0 {
		t.Fatalf("expected single facts source at score 1.0, got %+v", resp.Sources)
	}
}

func TestAnswerFromStoredEmbeddings(t *testing.T) {
	store := &fakeStore{
		doc: &models.Document{
			DocumentID:          "doc-2",
			Name:                "lease.pdf",
			ExtractedText:       "The deposit shall be refunded within thirty days.",
			IsChunkedExternally: true,
			HasStoredEmbeddings: true,
		},
		searchResults: []models.ChunkMatch{
			{ChunkID: "c1", Text: "The deposit shall be refunded within thirty days.", Score: 0.91},
		},
	}
	svc := NewService(testConfig(), store, mustManager(t, "mock", "mock"))

	resp, err := svc.AnswerQuestion(context.Background(), Request{DocumentID: "doc-2", Question: "Is the deposit refundable?"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Answer, "deposit shall be refunded") {
		t.Fatalf("answer not grounded in stored chunk: %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Score != 0.91 {
		t.Fatalf("unexpected sources: %+v", resp.Sources)
	}
}

func TestStoredSearchFailureFallsBackToKeyword(t *testing.T) {
	store := &fakeStore{
		doc: &models.Document{
			DocumentID:          "doc-3",
			Name:                "lease.pdf",
			ExtractedText:       "irrelevant extracted header",
			IsChunkedExternally: true,
			HasStoredEmbeddings: true,
		},
		passages: []models.Passage{
			{Text: "Nothing about money in this chunk."},
			{Text: "The deposit shall be refunded within thirty days of termination."},
		},
		searchErr: errors.New("vector index offline"),
	}
	svc := NewService(testConfig(), store, mustManager(t, "mock", "mock"))

	resp, err := svc.AnswerQuestion(context.Background(), Request{DocumentID: "doc-3", Question: "Is my deposit refunded?"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Sources) == 0 || len(resp.Sources) > 3 {
		t.Fatalf("expected 1..3 keyword sources, got %d", len(resp.Sources))
	}
	if resp.Sources[0].Text != store.passages[1].Text {
		t.Fatalf("expected deposit chunk ranked first, got %q", resp.Sources[0].Text)
	}
	for _, s := range resp.Sources {
		if s.Score < 0.5 || s.Score > 0.95 {
			t.Fatalf("keyword score %f outside [0.5, 0.95]", s.Score)
		}
	}
}

func TestDemoModeWithoutProviders(t *testing.T) {
	svc := NewService(testConfig(), nil, mustManager(t, "", ""))

	resp, err := svc.AnswerQuestion(context.Background(), Request{InlineContent: "some text", Question: "anything?"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != demoAnswer {
		t.Fatalf("expected demo answer, got %q", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Score != 0.95 {
		t.Fatalf("expected single demo source at 0.95, got %+v", resp.Sources)
	}
}

func TestInlineContentWithoutStore(t *testing.T) {
	svc := NewService(testConfig(), nil, mustManager(t, "mock", "mock"))

	resp, err := svc.AnswerQuestion(context.Background(), Request{
		InlineContent: "The deposit shall be refunded within thirty days. Notice must be given in writing.",
		Question:      "Is the deposit refundable?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Answer, "Based on the document passages:") {
		t.Fatalf("expected grounded mock answer, got %q", resp.Answer)
	}
	if len(resp.Sources) == 0 {
		t.Fatal("expected at least one source")
	}
}

func TestSourceTextsAreDisplaySnippets(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkSize = 2000
	svc := NewService(cfg, nil, mustManager(t, "mock", "mock"))

	long := strings.Repeat("The deposit refund terms apply to this clause. ", 30)
	resp, err := svc.AnswerQuestion(context.Background(), Request{
		InlineContent: long,
		Question:      "Is the deposit refundable?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Sources) == 0 {
		t.Fatal("expected at least one source")
	}
	if n := len([]rune(resp.Sources[0].Text)); n > 423 {
		t.Fatalf("source text not truncated, %d runes", n)
	}
	if !strings.HasSuffix(resp.Sources[0].Text, "...") {
		t.Fatalf("expected ellipsized snippet, got tail %q", resp.Sources[0].Text[len(resp.Sources[0].Text)-10:])
	}
}

func TestMissingInput(t *testing.T) {
	svc := NewService(testConfig(), nil, mustManager(t, "mock", "mock"))

	if _, err := svc.AnswerQuestion(context.Background(), Request{DocumentID: "doc-1"}); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput for empty question, got %v", err)
	}
	if _, err := svc.AnswerQuestion(context.Background(), Request{Question: "q?"}); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput without document or inline content, got %v", err)
	}
}

func TestDocumentNotFound(t *testing.T) {
	svc := NewService(testConfig(), &fakeStore{}, mustManager(t, "mock", "mock"))

	if _, err := svc.AnswerQuestion(context.Background(), Request{DocumentID: "missing", Question: "q?"}); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestInlineDocumentCachedForFollowUps(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(testConfig(), store, mustManager(t, "mock", "mock"))

	resp, err := svc.AnswerQuestion(context.Background(), Request{
		InlineContent: "The deposit shall be refunded within thirty days.",
		Question:      "Is the deposit refundable?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if store.getCalls != 0 {
		t.Fatalf("inline request should not hit the store, saw %d lookups", store.getCalls)
	}
	_ = resp
}
