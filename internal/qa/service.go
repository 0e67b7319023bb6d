// Package qa is the top-level question-answering orchestrator: it resolves
// document content, extracts binary payloads, short-circuits fact-answerable
// questions, runs the retrieval fallback chain, and composes the grounded
// answer.
package qa

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"docchat/internal/cache"
	"docchat/internal/chunker"
	"docchat/internal/compose"
	"docchat/internal/config"
	"docchat/internal/content"
	"docchat/internal/facts"
	"docchat/internal/models"
	"docchat/internal/providers"
	"docchat/internal/retrieval"
	"docchat/internal/storage"
	"docchat/internal/util"

	"github.com/google/uuid"
)

const (
	demoAnswer = "This is a demo answer. Configure a generation provider via DOCCHAT_LLM_PROVIDERS " +
		"to receive answers grounded in your document."
	demoSourceText  = "Demo source passage. Real retrieval runs once a generation provider is configured."
	factsSourceText = "Answered from pre-extracted document facts."

	// Cited source texts are display snippets, not full passages.
	sourceSnippetMax = 420
)

// DocumentStore is the narrow persistence contract the orchestrator consumes.
type DocumentStore interface {
	GetDocument(ctx context.Context, documentID string) (*models.Document, error)
	GetFullDocumentContent(ctx context.Context, documentID string) (string, error)
	UpdateExtractedContent(ctx context.Context, documentID, text string) error
	ListDocumentChunks(ctx context.Context, documentID string) ([]models.Passage, error)
	FindSimilarChunks(ctx context.Context, queryVec []float32, documentID string, topK int) ([]models.ChunkMatch, error)
}

type Request struct {
	DocumentID    string `json:"document_id,omitempty"`
	Question      string `json:"question"`
	InlineContent string `json:"inline_content,omitempty"`
}

type Response struct {
	Answer  string             `json:"answer"`
	Sources []retrieval.Result `json:"sources"`
}

type Service struct {
	cfg       config.Config
	store     DocumentStore
	inline    *cache.InlineDocuments
	extractor content.Extractor
	pm        *providers.Manager
	router    *facts.Router
	composer  *compose.Composer
}

// NewService wires the orchestrator. store may be nil for inline-only use.
func NewService(cfg config.Config, store DocumentStore, pm *providers.Manager) *Service {
	return &Service{
		cfg:       cfg,
		store:     store,
		inline:    cache.NewInlineDocuments(cfg.InlineCacheSize, time.Duration(cfg.InlineCacheTTLMin)*time.Minute),
		extractor: content.NewExtractor(),
		pm:        pm,
		router:    facts.NewRouter(pm, cfg.AnswerTemperature, cfg.AnswerMaxTokens),
		composer:  compose.NewComposer(pm, cfg.AnswerTemperature, cfg.AnswerMaxTokens, cfg.ContextTokenLimit),
	}
}

// AnswerQuestion is the one operation the rest of the system calls.
//
// Path preference encodes cost/quality: structured facts, then stored
// embeddings, then fresh embeddings, then keyword matching. Each stage falls
// through only on failure, so the user almost always gets a worse-but-present
// answer instead of an error.
func (s *Service) AnswerQuestion(ctx context.Context, req Request) (*Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrMissingInput
	}
	if strings.TrimSpace(req.DocumentID) == "" && strings.TrimSpace(req.InlineContent) == "" {
		return nil, ErrMissingInput
	}

	// Without a configured generation provider the pipeline stays exercisable
	// but answers in demo mode.
	if !s.pm.GenerationConfigured() {
		return &Response{
			Answer:  demoAnswer,
			Sources: []retrieval.Result{{Text: demoSourceText, Score: 0.95}},
		}, nil
	}

	doc, err := s.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	text := s.resolveText(ctx, doc)
	text = s.maybeExtractBinary(ctx, doc, text)

	if answer, ok := s.tryStructured(ctx, doc, question); ok {
		return &Response{
			Answer:  answer,
			Sources: []retrieval.Result{{Text: factsSourceText, Score: 1.0}},
		}, nil
	}

	results := s.retrieve(ctx, doc, question, text)

	answer := s.composer.Compose(ctx, question, results, doc.Name)
	limit := s.sourceLimit()
	if limit > len(results) {
		limit = len(results)
	}
	sources := make([]retrieval.Result, 0, limit)
	for _, r := range results[:limit] {
		sources = append(sources, retrieval.Result{Text: util.DisplaySnippet(r.Text, sourceSnippetMax), Score: r.Score})
	}
	return &Response{Answer: answer, Sources: sources}, nil
}

func (s *Service) resolveDocument(ctx context.Context, req Request) (*models.Document, error) {
	if inline := strings.TrimSpace(req.InlineContent); inline != "" {
		doc := &models.Document{
			DocumentID: uuid.NewString(),
			Name:       "inline document",
			RawContent: req.InlineContent,
		}
		s.inline.Add(doc.DocumentID, doc)
		return doc, nil
	}
	if doc, ok := s.inline.Get(req.DocumentID); ok {
		return doc, nil
	}
	if s.store == nil {
		return nil, ErrDocumentNotFound
	}
	doc, err := s.store.GetDocument(ctx, req.DocumentID)
	if errors.Is(err, storage.ErrDocumentNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// resolveText picks the working text in priority order: cached extracted
// text, then externally chunked content, then the full raw payload.
func (s *Service) resolveText(ctx context.Context, doc *models.Document) string {
	if doc.ExtractedText != "" {
		return doc.ExtractedText
	}
	if doc.IsChunkedExternally && s.store != nil {
		passages, err := s.store.ListDocumentChunks(ctx, doc.DocumentID)
		if err == nil && len(passages) > 0 {
			parts := make([]string, 0, len(passages))
			for _, p := range passages {
				parts = append(parts, p.Text)
			}
			return strings.Join(parts, "\n\n")
		}
	}
	if doc.RawContent != "" {
		return doc.RawContent
	}
	if s.store != nil {
		full, err := s.store.GetFullDocumentContent(ctx, doc.DocumentID)
		if err == nil {
			return full
		}
	}
	return ""
}

// maybeExtractBinary guarantees chunking and keyword matching never see
// binary bytes. The extracted text is written back as a best-effort cache
// fill.
func (s *Service) maybeExtractBinary(ctx context.Context, doc *models.Document, text string) string {
	cls := content.Detect(text)
	if !cls.Binary {
		return text
	}
	extracted := util.SanitizeText(s.extractor.Extract([]byte(text), cls.Kind))
	if extracted == "" {
		return text
	}
	if s.store != nil {
		if err := s.store.UpdateExtractedContent(ctx, doc.DocumentID, extracted); err != nil {
			log.Printf("qa: extracted-content cache fill failed for %s: %v", doc.DocumentID, err)
		}
	}
	doc.ExtractedText = extracted
	return extracted
}

func (s *Service) tryStructured(ctx context.Context, doc *models.Document, question string) (string, bool) {
	if len(doc.StructuredFacts) == 0 || !s.router.CanAnswerFromFacts(question) {
		return "", false
	}
	answer, err := s.router.AnswerFromFacts(ctx, question, doc.StructuredFacts)
	if err != nil {
		log.Printf("qa: structured answer failed for %s, falling back to retrieval: %v", doc.DocumentID, err)
		return "", false
	}
	return answer, true
}

// retrieve builds the ordered strategy chain for this document and returns
// the first non-empty result set.
func (s *Service) retrieve(ctx context.Context, doc *models.Document, question, text string) []retrieval.Result {
	topK := s.cfg.RetrieveTopK
	if topK <= 0 {
		topK = 5
	}

	var strategies []retrieval.Strategy
	if doc.IsChunkedExternally && doc.HasStoredEmbeddings && s.store != nil {
		passages, err := s.store.ListDocumentChunks(ctx, doc.DocumentID)
		if err != nil {
			log.Printf("qa: listing stored chunks for %s failed: %v", doc.DocumentID, err)
		}
		strategies = []retrieval.Strategy{
			retrieval.NewStoredEmbedding(s.pm, s.store, doc.DocumentID, s.cfg.EmbedDim),
			s.keywordStrategy(passages),
		}
	} else {
		parts := chunker.Chunk(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
		passages := make([]models.Passage, 0, len(parts))
		for _, p := range parts {
			passages = append(passages, models.Passage{Text: p})
		}
		strategies = []retrieval.Strategy{
			retrieval.NewEmbedding(s.pm, passages, s.cfg.EmbedDim, s.cfg.EmbedBatchSize,
				time.Duration(s.cfg.EmbedBatchDelay)*time.Millisecond),
			s.keywordStrategy(passages),
		}
	}

	for _, strat := range strategies {
		results, err := strat.Retrieve(ctx, question, topK)
		if err != nil {
			log.Printf("qa: %s retrieval failed for %s: %v", strat.Name(), doc.DocumentID, err)
			continue
		}
		if len(results) > 0 {
			return results
		}
	}
	return []retrieval.Result{}
}

func (s *Service) keywordStrategy(passages []models.Passage) retrieval.Strategy {
	return retrieval.NewKeyword(passages, s.cfg.KeywordScoreFloor, s.cfg.KeywordScoreCeil, s.cfg.KeywordScoreScale)
}

func (s *Service) sourceLimit() int {
	if s.cfg.SourceLimit <= 0 {
		return 3
	}
	return s.cfg.SourceLimit
}
