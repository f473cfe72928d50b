package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/workerrun"
)

type WorkerRunRepository struct {
	mu    sync.RWMutex
	items map[string]workerrun.Run
}

func NewWorkerRunRepository() *WorkerRunRepository {
	return &WorkerRunRepository{items: make(map[string]workerrun.Run)}
}

func (r *WorkerRunRepository) Save(_ context.Context, run workerrun.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[run.ID] = run
	return nil
}

func (r *WorkerRunRepository) ListRecent(_ context.Context, worker string, limit int) ([]workerrun.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]workerrun.Run, 0)
	for _, run := range r.items {
		if worker == "" || run.Worker == worker {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
