// Package compose assembles the grounding prompt from retrieved passages and
// produces the final answer text.
package compose

import (
	"context"
	"fmt"
	"strings"

	"docchat/internal/providers"
	"docchat/internal/retrieval"

	"github.com/pkoukk/tiktoken-go"
)

const (
	systemPrompt = "You are a document analysis assistant. Answer the question using ONLY the provided document passages. " +
		"If the passages do not contain the answer, say the information could not be found in the document. " +
		"Never fabricate content. Keep answers concise."

	// Returned when every generation attempt failed; a degraded answer beats
	// an error surface.
	fallbackAnswer = "I apologize, but I was unable to generate an answer for this question. Please try rephrasing it."
)

type Generator interface {
	Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error)
}

type Composer struct {
	gen         Generator
	temperature float64
	maxTokens   int
	tokenLimit  int
	enc         *tiktoken.Tiktoken
}

func NewComposer(gen Generator, temperature float64, maxTokens, contextTokenLimit int) *Composer {
	// Encoding load needs the BPE ranks; when unavailable we fall back to a
	// rune-count estimate in countTokens.
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		enc = nil
	}
	return &Composer{
		gen:         gen,
		temperature: temperature,
		maxTokens:   maxTokens,
		tokenLimit:  contextTokenLimit,
		enc:         enc,
	}
}

// Compose asks the generation provider for an answer grounded in the given
// passages. Generation failure yields a fixed apologetic fallback, never an
// error.
func (c *Composer) Compose(ctx context.Context, question string, passages []retrieval.Result, documentName string) string {
	blocks := c.contextBlocks(passages)
	prompt := fmt.Sprintf("Document: %s\n\nQuestion: %s", documentName, question)
	resp, _, err := c.gen.Generate(ctx, providers.GenerateRequest{
		Operation:   "grounded_answer",
		System:      systemPrompt,
		Prompt:      prompt,
		Context:     blocks,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		return fallbackAnswer
	}
	return strings.TrimSpace(resp.Text)
}

// contextBlocks renders passages with a relevance prefix and stops adding
// once the token budget is spent.
func (c *Composer) contextBlocks(passages []retrieval.Result) []string {
	blocks := make([]string, 0, len(passages))
	used := 0
	for i, p := range passages {
		block := fmt.Sprintf("[Passage %d | relevance %.2f]\n%s", i+1, p.Score, p.Text)
		cost := c.countTokens(block)
		if c.tokenLimit > 0 && used+cost > c.tokenLimit && len(blocks) > 0 {
			break
		}
		blocks = append(blocks, block)
		used += cost
	}
	return blocks
}

func (c *Composer) countTokens(s string) int {
	if c.enc != nil {
		return len(c.enc.Encode(s, nil, nil))
	}
	// Rough estimate: ~4 runes per token for English prose.
	n := len([]rune(s)) / 4
	if n == 0 {
		n = 1
	}
	return n
}
