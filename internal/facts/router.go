// Package facts short-circuits questions that can be answered from a
// document's pre-extracted structured fact record, skipping passage
// retrieval entirely.
package facts

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"docchat/internal/providers"
)

// Rule maps a question shape onto a fact category. Rules are a declarative
// table so new shapes can be added and unit-tested without touching the
// orchestration logic.
type Rule struct {
	Category string
	Pattern  *regexp.Regexp
}

var defaultRules = []Rule{
	{Category: "document_type", Pattern: regexp.MustCompile(`(?i)\bwhat\s+(type|kind|sort)\s+of\s+(document|contract|agreement|file)\b`)},
	{Category: "parties", Pattern: regexp.MustCompile(`(?i)\bwho\s+(are|is)\s+the\s+part(y|ies)\b|\bparties\s+(involved|to\s+th(is|e))\b|\bwho\s+signed\b|\bsignator`)},
	{Category: "financial_terms", Pattern: regexp.MustCompile(`(?i)\b(payment\s+terms?|fees?|costs?|price|pricing|amounts?\s+due|financial\s+terms?|monetary|compensation)\b`)},
	{Category: "dates_deadlines", Pattern: regexp.MustCompile(`(?i)\b(deadline|due\s+date|effective\s+date|expir(y|es|ation)|renewal\s+date|key\s+dates?)\b`)},
	{Category: "risks", Pattern: regexp.MustCompile(`(?i)\brisk(s|y)?\b`)},
	{Category: "obligations", Pattern: regexp.MustCompile(`(?i)\b(obligations?|responsibilit(y|ies)|duties|required\s+to\s+do)\b`)},
	{Category: "termination", Pattern: regexp.MustCompile(`(?i)\b(terminat(e|ion|ing)|cancel(lation)?|end\s+the\s+(contract|agreement))\b`)},
	{Category: "critical_clauses", Pattern: regexp.MustCompile(`(?i)\b(critical|important|key|main)\s+(clauses?|provisions?|terms?|sections?)\b`)},
}

const answerSystemPrompt = "You are a document analysis assistant. Answer strictly from the structured facts provided. " +
	"If the facts do not contain the answer, say the information is not available in the extracted data. " +
	"Never invent facts. Keep answers concise."

// Generator is the slice of the provider manager the router needs.
type Generator interface {
	Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error)
}

type Router struct {
	rules       []Rule
	gen         Generator
	temperature float64
	maxTokens   int
}

func NewRouter(gen Generator, temperature float64, maxTokens int) *Router {
	return &Router{rules: defaultRules, gen: gen, temperature: temperature, maxTokens: maxTokens}
}

// Match returns the first matching rule category. Classification is ordered
// and case-insensitive; no match means the retrieval path should run.
func (r *Router) Match(question string) (string, bool) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", false
	}
	for _, rule := range r.rules {
		if rule.Pattern.MatchString(q) {
			return rule.Category, true
		}
	}
	return "", false
}

func (r *Router) CanAnswerFromFacts(question string) bool {
	_, ok := r.Match(question)
	return ok
}

// AnswerFromFacts grounds a generation call in the full fact record. The
// caller falls back to retrieval when this errors.
func (r *Router) AnswerFromFacts(ctx context.Context, question string, facts json.RawMessage) (string, error) {
	if len(facts) == 0 {
		return "", fmt.Errorf("no structured facts available")
	}
	category, ok := r.Match(question)
	if !ok {
		return "", fmt.Errorf("question does not match any fact category")
	}
	resp, _, err := r.gen.Generate(ctx, providers.GenerateRequest{
		Operation:   "facts_answer",
		System:      answerSystemPrompt,
		Prompt:      fmt.Sprintf("Question (%s): %s", category, question),
		Context:     []string{"Extracted document facts:\n" + string(facts)},
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("facts answer generation: %w", err)
	}
	answer := strings.TrimSpace(resp.Text)
	if answer == "" {
		return "", fmt.Errorf("facts answer generation returned empty text")
	}
	return answer, nil
}
