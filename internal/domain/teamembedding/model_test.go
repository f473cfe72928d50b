package teamembedding

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	sim, err := CosineSimilarity([]float64{1, 0}, []float64{1, 0})
	if err != nil {
		t.Fatalf("cosine: %v", err)
	}
	if math.Abs(sim-1) > 1e-9 {
		t.Fatalf("expected 1, got %f", sim)
	}

	sim, _ = CosineSimilarity([]float64{1, 0}, []float64{0, 1})
	if math.Abs(sim) > 1e-9 {
		t.Fatalf("expected 0, got %f", sim)
	}

	sim, _ = CosineSimilarity([]float64{0, 0}, []float64{0, 1})
	if sim != 0 {
		t.Fatalf("expected 0 for zero vector, got %f", sim)
	}

	if _, err := CosineSimilarity([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatalf("expected dimension error")
	}
}

func TestMostSimilar(t *testing.T) {
	t.Parallel()

	candidates := []TeamEmbedding{
		{TeamID: "chelsea", EmbeddingEN: []float64{0, 1}},
		{TeamID: "arsenal", EmbeddingEN: []float64{1, 0.1}},
		{TeamID: "no-vector"},
		{TeamID: "bad-dim", EmbeddingEN: []float64{1, 0, 0}},
		{TeamID: "arsenal-women", EmbeddingEN: []float64{1, 0.3}},
	}
	got := MostSimilar([]float64{1, 0}, candidates, LangEN, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].TeamID != "arsenal" || got[1].TeamID != "arsenal-women" {
		t.Fatalf("unexpected ranking: %+v", got)
	}
}
