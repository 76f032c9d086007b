// Package database provides schema migrations for the Dispatch database.
package database

import (
	"database/sql"
	"log"
)

// ProbeLogSchema creates the probe history table. Tests reuse it to set up
// in-memory databases.
const ProbeLogSchema = `
CREATE TABLE IF NOT EXISTS health_probe_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    service_name TEXT NOT NULL,
    checked_at TEXT NOT NULL,
    status TEXT NOT NULL,
    status_code INTEGER NOT NULL DEFAULT 0,
    error_message TEXT,
    response_time_ms INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_probe_logs_service ON health_probe_logs(service_name);
CREATE INDEX IF NOT EXISTS idx_probe_logs_checked_at ON health_probe_logs(checked_at);
`

// Migrate runs all database migrations to create the schema.
// Returns an error if any migration fails.
func Migrate(conn *sql.DB) error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "create_health_probe_logs_table",
			sql:  ProbeLogSchema,
		},
	}

	for _, migration := range migrations {
		log.Printf("Running migration: %s", migration.name)
		if _, err := conn.Exec(migration.sql); err != nil {
			log.Printf("Migration failed for %s: %v", migration.name, err)
			return err
		}
		log.Printf("Migration completed: %s", migration.name)
	}

	return nil
}
