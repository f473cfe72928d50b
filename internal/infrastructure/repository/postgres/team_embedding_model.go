package postgres

import (
	"time"

	"github.com/lib/pq"
)

type teamEmbeddingTableModel struct {
	TeamID      string          `db:"team_public_id"`
	EmbeddingEN pq.Float64Array `db:"embedding_en"`
	EmbeddingHE pq.Float64Array `db:"embedding_he"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

type teamEmbeddingInsertModel struct {
	TeamID      string          `db:"team_public_id"`
	EmbeddingEN pq.Float64Array `db:"embedding_en"`
	EmbeddingHE pq.Float64Array `db:"embedding_he"`
}
