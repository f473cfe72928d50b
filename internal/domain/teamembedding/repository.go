package teamembedding

import "context"

type Repository interface {
	Get(ctx context.Context, teamID string) (TeamEmbedding, bool, error)
	List(ctx context.Context) ([]TeamEmbedding, error)
	Upsert(ctx context.Context, item TeamEmbedding) error
}
