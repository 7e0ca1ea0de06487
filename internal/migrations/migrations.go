package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

var kvSchema = map[string]string{
	"sqlite": `CREATE TABLE IF NOT EXISTS kv_store (
            store_key TEXT PRIMARY KEY,
            payload TEXT NOT NULL,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
	"mysql": `CREATE TABLE IF NOT EXISTS kv_store (
            store_key VARCHAR(64) PRIMARY KEY,
            payload LONGTEXT NOT NULL,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
	"pgx": `CREATE TABLE IF NOT EXISTS kv_store (
            store_key TEXT PRIMARY KEY,
            payload TEXT NOT NULL,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        );`,
}

// Run creates the key-value table the persistence gateway writes to.
func Run(db *sqlx.DB) error {
	stmt, ok := kvSchema[db.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}
	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
