package retrieval

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"docchat/internal/models"
)

// stopWords are dropped from questions before keyword matching: articles,
// conjunctions, question words, common prepositions and copulas.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "but": {}, "for": {}, "nor": {}, "yet": {},
	"are": {}, "was": {}, "were": {}, "been": {}, "being": {},
	"has": {}, "have": {}, "had": {}, "does": {}, "did": {},
	"can": {}, "could": {}, "will": {}, "would": {}, "should": {},
	"what": {}, "which": {}, "who": {}, "whom": {}, "whose": {},
	"when": {}, "where": {}, "why": {}, "how": {},
	"this": {}, "that": {}, "these": {}, "those": {},
	"with": {}, "from": {}, "into": {}, "about": {}, "over": {}, "under": {},
}

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// KeywordStrategy is the crude last-resort ranker used when no embedding
// path is available: whole-word keyword occurrence counts, normalized by
// keyword count, rescaled into [floor, ceil].
type KeywordStrategy struct {
	passages []models.Passage
	floor    float64
	ceil     float64
	scale    float64
}

func NewKeyword(passages []models.Passage, floor, ceil, scale float64) *KeywordStrategy {
	if floor <= 0 {
		floor = 0.5
	}
	if ceil <= floor {
		ceil = 0.95
	}
	if scale <= 0 {
		scale = 5
	}
	return &KeywordStrategy{passages: passages, floor: floor, ceil: ceil, scale: scale}
}

func (s *KeywordStrategy) Name() string { return "keyword" }

func (s *KeywordStrategy) Retrieve(ctx context.Context, question string, topK int) ([]Result, error) {
	_ = ctx
	if topK <= 0 {
		topK = 5
	}
	if len(s.passages) == 0 {
		return []Result{}, nil
	}
	keywords := ExtractKeywords(question)
	if len(keywords) == 0 {
		return firstK(s.passages, topK, s.floor), nil
	}

	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
	}

	type rawScore struct {
		text string
		raw  float64
	}
	scored := make([]rawScore, 0, len(s.passages))
	for _, p := range s.passages {
		matches := 0
		for _, re := range patterns {
			matches += len(re.FindAllStringIndex(p.Text, -1))
		}
		scored = append(scored, rawScore{text: p.Text, raw: float64(matches) / float64(len(keywords))})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].raw > scored[j].raw })
	if len(scored) > topK {
		scored = scored[:topK]
	}

	out := make([]Result, 0, len(scored))
	for _, sc := range scored {
		out = append(out, Result{Text: sc.text, Score: s.rescale(sc.raw)})
	}
	return out, nil
}

func (s *KeywordStrategy) rescale(raw float64) float64 {
	v := raw / s.scale
	if v < s.floor {
		v = s.floor
	}
	if v > s.ceil {
		v = s.ceil
	}
	return v
}

// ExtractKeywords lowercases the question, strips punctuation, and drops
// short tokens and stop words.
func ExtractKeywords(question string) []string {
	cleaned := punctuation.ReplaceAllString(strings.ToLower(question), " ")
	fields := strings.Fields(cleaned)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) <= 2 {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}
