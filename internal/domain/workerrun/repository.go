package workerrun

import "context"

type Repository interface {
	Save(ctx context.Context, run Run) error
	ListRecent(ctx context.Context, worker string, limit int) ([]Run, error)
}
