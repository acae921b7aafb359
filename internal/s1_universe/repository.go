package s1_universe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/miller/backend/pkg/database"
)

// Repository lists the entities present in the statement store
type Repository struct {
	db database.Querier
}

// NewRepository creates a new Repository instance
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

const listEntitiesQuery = `
	SELECT DISTINCT stkcd FROM data.balance
	WHERE stkcd <> ''
	ORDER BY stkcd
`

// ListEntities returns every non-empty stock code with at least one balance
// sheet row
func (r *Repository) ListEntities(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, listEntitiesQuery)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan entities: %w", err)
	}

	return codes, nil
}
