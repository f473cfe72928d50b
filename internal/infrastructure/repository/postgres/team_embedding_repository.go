package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/ticket-marketplace/internal/domain/teamembedding"
	qb "github.com/riskibarqy/ticket-marketplace/internal/platform/querybuilder"
)

type TeamEmbeddingRepository struct {
	db *sqlx.DB
}

func NewTeamEmbeddingRepository(db *sqlx.DB) *TeamEmbeddingRepository {
	return &TeamEmbeddingRepository{db: db}
}

func (r *TeamEmbeddingRepository) Get(ctx context.Context, teamID string) (teamembedding.TeamEmbedding, bool, error) {
	query, args, err := qb.Select("*").From("team_embeddings").
		Where(qb.Eq("team_public_id", teamID)).
		ToSQL()
	if err != nil {
		return teamembedding.TeamEmbedding{}, false, fmt.Errorf("build get team embedding query: %w", err)
	}

	var row teamEmbeddingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return teamembedding.TeamEmbedding{}, false, nil
		}
		return teamembedding.TeamEmbedding{}, false, fmt.Errorf("get team embedding: %w", err)
	}
	return embeddingFromRow(row), true, nil
}

func (r *TeamEmbeddingRepository) List(ctx context.Context) ([]teamembedding.TeamEmbedding, error) {
	query, args, err := qb.Select("*").From("team_embeddings").
		OrderBy("team_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select team embeddings query: %w", err)
	}

	var rows []teamEmbeddingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select team embeddings: %w", err)
	}

	out := make([]teamembedding.TeamEmbedding, 0, len(rows))
	for _, row := range rows {
		out = append(out, embeddingFromRow(row))
	}
	return out, nil
}

func (r *TeamEmbeddingRepository) Upsert(ctx context.Context, item teamembedding.TeamEmbedding) error {
	insertModel := teamEmbeddingInsertModel{
		TeamID:      item.TeamID,
		EmbeddingEN: pq.Float64Array(item.EmbeddingEN),
		EmbeddingHE: pq.Float64Array(item.EmbeddingHE),
	}
	query, args, err := qb.InsertModel("team_embeddings", insertModel,
		qb.OnConflictUpdate("team_public_id", "embedding_en", "embedding_he"))
	if err != nil {
		return fmt.Errorf("build upsert team embedding query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert team embedding: %w", err)
	}
	return nil
}

func embeddingFromRow(row teamEmbeddingTableModel) teamembedding.TeamEmbedding {
	return teamembedding.TeamEmbedding{
		TeamID:      row.TeamID,
		EmbeddingEN: []float64(row.EmbeddingEN),
		EmbeddingHE: []float64(row.EmbeddingHE),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
