package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/stemkeeper/internal/core/db"
)

// openDB connects to cfg.DB.URL without checking the schema.
func openDB(ctx context.Context) (*sqlx.DB, error) {
	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("--db-url required")
	}
	database, err := db.Open(ctx, cfg.DB.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// openJournalDB connects and refuses to continue on an unmigrated schema.
func openJournalDB(ctx context.Context) (*sqlx.DB, *db.Queries, error) {
	database, err := openDB(ctx)
	if err != nil {
		return nil, nil, err
	}

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			database.Close()
			return nil, nil, fmt.Errorf("migration %s not applied - run 'stemkeeper migrate up' first", s.ID)
		}
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, queries, nil
}
