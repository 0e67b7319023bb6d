package providers

import (
	"context"
	"fmt"
	"strings"

	"docchat/internal/util"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

// Manager owns the configured provider lists and the failover order across
// them. An empty provider list still yields a working (mock) provider, but is
// reported as unconfigured so callers can switch to demo behavior.
type Manager struct {
	llmProviders   []NamedLLMProvider
	embedProviders []NamedEmbedProvider
	llmConfigured  bool
}

func NewManager(llmList, embedList string, embedDim int) (*Manager, error) {
	llmRefs := ParseProviderList(llmList)
	embedRefs := ParseProviderList(embedList)

	m := &Manager{llmConfigured: len(llmRefs) > 0}
	for _, ref := range llmRefs {
		p, err := buildProvider(ref, embedDim)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support llm", ref.Raw)
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: llm})
	}
	for _, ref := range embedRefs {
		p, err := buildProvider(ref, embedDim)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: embed})
	}
	if len(m.llmProviders) == 0 {
		m.llmProviders = []NamedLLMProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(embedDim)}}
	}
	if len(m.embedProviders) == 0 {
		m.embedProviders = []NamedEmbedProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider(embedDim)}}
	}
	return m, nil
}

// GenerationConfigured reports whether any generation provider was listed in
// config. When false the QA service answers in demo mode.
func (m *Manager) GenerationConfigured() bool {
	return m.llmConfigured
}

// Embed runs one embedding request through the providers in preferred order
// and returns the first successful result.
func (m *Manager) Embed(ctx context.Context, inputs []string, dim int) ([][]float32, ProviderInfo, error) {
	var (
		info ProviderInfo
		err  error
	)
	for _, i := range preferredOrder(len(m.embedProviders), func(i int) string { return strings.ToLower(m.embedProviders[i].Ref.Name) }) {
		var vectors [][]float32
		vectors, info, err = m.embedProviders[i].Provider.Embed(ctx, EmbedRequest{
			Operation: "embed",
			Inputs:    inputs,
			Dimension: dim,
		})
		if err == nil && len(vectors) == len(inputs) {
			return vectors, info, nil
		}
		if err == nil {
			err = fmt.Errorf("embedding provider %s returned %d vectors for %d inputs", info.Name, len(vectors), len(inputs))
		}
	}
	if err == nil {
		err = fmt.Errorf("no embedding providers available")
	}
	return nil, info, classified(err)
}

// Generate runs one generation request through the providers in preferred
// order, skipping providers that fail or return empty text.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var (
		resp GenerateResponse
		info ProviderInfo
		err  error
	)
	for _, i := range preferredOrder(len(m.llmProviders), func(i int) string { return strings.ToLower(m.llmProviders[i].Ref.Name) }) {
		resp, info, err = m.llmProviders[i].Provider.Generate(ctx, req)
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return resp, info, nil
		}
		if err == nil {
			err = fmt.Errorf("llm provider %s returned empty text", info.Name)
		}
	}
	if err == nil {
		err = fmt.Errorf("no llm providers available")
	}
	return GenerateResponse{}, info, classified(err)
}

// classified tags an exhausted-failover error with the matching sentinel so
// callers can route on errors.Is instead of parsing provider messages.
func classified(err error) error {
	if err == nil {
		return nil
	}
	switch ClassifyError(err) {
	case ErrorQuota:
		return fmt.Errorf("%w: %v", util.ErrQuotaExhausted, err)
	case ErrorRate:
		return fmt.Errorf("%w: %v", util.ErrRateLimited, err)
	case ErrorTransient:
		return fmt.Errorf("%w: %v", util.ErrTransient, err)
	default:
		return fmt.Errorf("%w: %v", util.ErrPermanent, err)
	}
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func buildProvider(ref ProviderRef, dim int) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaEmbeddingProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
