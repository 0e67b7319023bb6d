// Package retrieval holds the passage retrieval strategies. The QA service
// assembles them into an ordered fallback chain and tries each in turn, so
// the degradation order is data rather than nested error handling.
package retrieval

import "context"

// Result is one retrieved passage with its method-specific score: cosine
// similarity in [-1,1] for embedding retrieval, a [0.5,0.95] heuristic for
// keyword matching.
type Result struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

type Strategy interface {
	Name() string
	Retrieve(ctx context.Context, question string, topK int) ([]Result, error)
}
