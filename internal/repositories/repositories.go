// package repositories provides the sqlite persistence layer for stored
// service sessions (credentials).
//
// Nothing about a sync run is persisted; every run resolves tracks against
// the live destination catalog and reports its result to the caller only.
package repositories

import (
	"database/sql"
	"fmt"
)

// Migrate creates the schema if it does not exist.
func Migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			service TEXT PRIMARY KEY,
			access_token TEXT NOT NULL DEFAULT '',
			user_token TEXT NOT NULL DEFAULT '',
			storefront TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
