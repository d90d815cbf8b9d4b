package main

import (
	"context"
	"flag"
	"log"

	"github.com/stivenPRO500/siembrasApp/internal/config"
	"github.com/stivenPRO500/siembrasApp/internal/database"
)

// Stamps rows that predate ownership onto the admin account. Until they are
// stamped, such rows are visible to the admin only; running this makes that
// ownership explicit.
func main() {
	dryRun := flag.Bool("dry-run", false, "report counts without writing")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := database.NewPool(ctx, &cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize database pool: %v", err)
	}
	defer pool.Close()

	var adminID string
	err = pool.QueryRow(ctx, `SELECT id FROM users WHERE role = 'admin' LIMIT 1`).Scan(&adminID)
	if err != nil {
		log.Fatalf("No admin account found: %v", err)
	}

	tables := []string{"parcels", "activities", "products", "harvests"}
	for _, table := range tables {
		var count int
		if err := pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM `+table+` WHERE owner_id IS NULL`).Scan(&count); err != nil {
			log.Fatalf("Failed to count ownerless %s: %v", table, err)
		}

		if *dryRun {
			log.Printf("%s: %d ownerless rows (dry run)", table, count)
			continue
		}
		if count == 0 {
			log.Printf("%s: nothing to backfill", table)
			continue
		}

		result, err := pool.Exec(ctx,
			`UPDATE `+table+` SET owner_id = $1, updated_at = NOW() WHERE owner_id IS NULL`, adminID)
		if err != nil {
			log.Fatalf("Failed to backfill %s: %v", table, err)
		}
		log.Printf("%s: backfilled %d rows onto admin %s", table, result.RowsAffected(), adminID)
	}
}
