package farm

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stivenPRO500/siembrasApp/internal/models"
)

// groupByOwner runs the cross-tenant aggregation behind the admin owners
// summary: row counts per owner, ownerless legacy rows grouped under nil.
func groupByOwner(ctx context.Context, pool *pgxpool.Pool, table string) ([]models.OwnerGroup, error) {
	// table comes from a fixed set of repository callers, never from input.
	query := fmt.Sprintf(`
		SELECT owner_id, COUNT(*)
		FROM %s
		GROUP BY owner_id
		ORDER BY COUNT(*) DESC`, table)

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group %s by owner: %w", table, err)
	}
	defer rows.Close()

	groups := []models.OwnerGroup{}
	for rows.Next() {
		var g models.OwnerGroup
		if err := rows.Scan(&g.OwnerID, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan owner group: %w", err)
		}
		groups = append(groups, g)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating owner groups: %w", rows.Err())
	}
	return groups, nil
}
