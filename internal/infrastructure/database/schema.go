package database

import (
	"context"
	"fmt"
)

// schema is the full database schema. The only table is the write-history
// audit trail; it is created idempotently at startup.
const schema = `
CREATE TABLE IF NOT EXISTS write_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id TEXT NOT NULL,
	previous_value TEXT NOT NULL,
	new_value TEXT NOT NULL,
	action TEXT NOT NULL DEFAULT 'write',
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
) STRICT;

CREATE INDEX IF NOT EXISTS idx_write_history_device
	ON write_history(device_id, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_write_history_time
	ON write_history(created_at DESC);
`

// EnsureSchema creates the database schema if it does not exist.
// It is safe to call on every startup.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: If schema creation fails
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
