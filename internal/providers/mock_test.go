package providers

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"docchat/internal/util"
)

func TestMockEmbedDeterministic(t *testing.T) {
	m := NewMockProvider(8)
	a, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"alpha", "beta"}, Dimension: 8})
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"alpha", "beta"}, Dimension: 8})
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 2 || len(a[0]) != 8 {
		t.Fatalf("unexpected shape: %d vectors of %d", len(a), len(a[0]))
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatal("embedding not deterministic for same input")
		}
	}
	same := true
	for i := range a[0] {
		if a[0][i] != a[1][i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("distinct inputs produced identical embeddings")
	}
}

func TestMockGenerateEchoesContext(t *testing.T) {
	m := NewMockProvider(8)
	resp, _, err := m.Generate(context.Background(), GenerateRequest{
		Operation: "grounded_answer",
		Context:   []string{"the deposit is refundable"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Text, "the deposit is refundable") {
		t.Fatalf("expected context echo, got %q", resp.Text)
	}
}

func TestManagerUnconfiguredFallsBackToMock(t *testing.T) {
	m, err := NewManager("", "", 8)
	if err != nil {
		t.Fatal(err)
	}
	if m.GenerationConfigured() {
		t.Fatal("empty provider list should report unconfigured")
	}
	vectors, info, err := m.Embed(context.Background(), []string{"x"}, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 1 || info.Name != "mock" {
		t.Fatalf("expected mock embedding, got %d vectors from %q", len(vectors), info.Name)
	}
}

func TestManagerExplicitMockIsConfigured(t *testing.T) {
	m, err := NewManager("mock", "mock", 8)
	if err != nil {
		t.Fatal(err)
	}
	if !m.GenerationConfigured() {
		t.Fatal("explicit mock provider should report configured")
	}
}

func TestMockEmbedVectorsAreUnitLength(t *testing.T) {
	m := NewMockProvider(16)
	vecs, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"alpha"}, Dimension: 16})
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, x := range vecs[0] {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1.0) > 1e-3 {
		t.Fatalf("expected unit-length vector, squared norm %f", sum)
	}
}

func TestManagerRejectsUnknownProvider(t *testing.T) {
	if _, err := NewManager("notreal", "", 8); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestGenerateFailureCarriesClassifiedSentinel(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	m, err := NewManager("openai", "", 8)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = m.Generate(context.Background(), GenerateRequest{Operation: "x", Prompt: "q"})
	if err == nil {
		t.Fatal("expected generation failure without a key")
	}
	if !errors.Is(err, util.ErrPermanent) {
		t.Fatalf("expected permanent sentinel, got %v", err)
	}
}
