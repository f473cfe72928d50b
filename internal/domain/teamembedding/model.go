package teamembedding

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	LangEN = "en"
	LangHE = "he"
)

// TeamEmbedding holds language-tagged name vectors for one team.
type TeamEmbedding struct {
	TeamID      string    `json:"team_id"`
	EmbeddingEN []float64 `json:"embedding_en"`
	EmbeddingHE []float64 `json:"embedding_he,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Vector returns the embedding for lang.
func (e TeamEmbedding) Vector(lang string) []float64 {
	if lang == LangHE {
		return e.EmbeddingHE
	}
	return e.EmbeddingEN
}

// CosineSimilarity returns the cosine of the angle between a and b. Vectors
// must share a dimension; a zero vector has similarity 0 with everything.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d != %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

type Scored struct {
	TeamID     string  `json:"team_id"`
	Similarity float64 `json:"similarity"`
}

// MostSimilar ranks candidates against query in lang, best first, keeping at
// most limit results. Candidates with a missing or mismatched vector are skipped.
func MostSimilar(query []float64, candidates []TeamEmbedding, lang string, limit int) []Scored {
	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		vec := c.Vector(lang)
		if len(vec) == 0 {
			continue
		}
		sim, err := CosineSimilarity(query, vec)
		if err != nil {
			continue
		}
		out = append(out, Scored{TeamID: c.TeamID, Similarity: sim})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].TeamID < out[j].TeamID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
