package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/teamembedding"
)

type TeamEmbeddingRepository struct {
	mu    sync.RWMutex
	items map[string]teamembedding.TeamEmbedding
}

func NewTeamEmbeddingRepository() *TeamEmbeddingRepository {
	return &TeamEmbeddingRepository{items: make(map[string]teamembedding.TeamEmbedding)}
}

func (r *TeamEmbeddingRepository) Get(_ context.Context, teamID string) (teamembedding.TeamEmbedding, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[teamID]
	return item, ok, nil
}

func (r *TeamEmbeddingRepository) List(_ context.Context) ([]teamembedding.TeamEmbedding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]teamembedding.TeamEmbedding, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

func (r *TeamEmbeddingRepository) Upsert(_ context.Context, item teamembedding.TeamEmbedding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.items[item.TeamID]; ok {
		item.CreatedAt = existing.CreatedAt
	} else {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	item.EmbeddingEN = slices.Clone(item.EmbeddingEN)
	item.EmbeddingHE = slices.Clone(item.EmbeddingHE)
	r.items[item.TeamID] = item
	return nil
}
