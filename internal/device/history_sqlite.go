package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteWriteHistoryRepository implements WriteHistoryRepository using SQLite.
//
// It stores the before/after values as JSON in the write_history table.
type SQLiteWriteHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteWriteHistoryRepository creates a new SQLite write history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteWriteHistoryRepository: Repository instance ready for use
func NewSQLiteWriteHistoryRepository(db *sql.DB) *SQLiteWriteHistoryRepository {
	return &SQLiteWriteHistoryRepository{db: db}
}

// RecordWrite inserts a new write history entry for a device.
func (r *SQLiteWriteHistoryRepository) RecordWrite(ctx context.Context, deviceID string, previous, newValue any, action string) error {
	if deviceID == "" {
		return fmt.Errorf("device id is required")
	}
	if action == "" {
		action = "write"
	}

	previousJSON, err := json.Marshal(previous)
	if err != nil {
		return fmt.Errorf("marshalling previous value: %w", err)
	}
	newJSON, err := json.Marshal(newValue)
	if err != nil {
		return fmt.Errorf("marshalling new value: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO write_history (device_id, previous_value, new_value, action) VALUES (?, ?, ?, ?)",
		deviceID,
		string(previousJSON),
		string(newJSON),
		action,
	)
	if err != nil {
		return fmt.Errorf("inserting write history: %w", err)
	}

	return nil
}

// GetHistory returns recent write history entries for a device, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Unique device identifier
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []WriteHistoryEntry: History entries ordered by created_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteWriteHistoryRepository) GetHistory(ctx context.Context, deviceID string, limit int) ([]WriteHistoryEntry, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, previous_value, new_value, action, created_at
		 FROM write_history
		 WHERE device_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		deviceID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying write history: %w", err)
	}
	defer rows.Close()

	entries := make([]WriteHistoryEntry, 0, limit)
	for rows.Next() {
		var entry WriteHistoryEntry
		var previousJSON, newJSON string
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.DeviceID, &previousJSON, &newJSON, &entry.Action, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning write history: %w", err)
		}

		if err := json.Unmarshal([]byte(previousJSON), &entry.Previous); err != nil {
			return nil, fmt.Errorf("unmarshalling previous value: %w", err)
		}
		if err := json.Unmarshal([]byte(newJSON), &entry.New); err != nil {
			return nil, fmt.Errorf("unmarshalling new value: %w", err)
		}

		timestamp, err := parseHistoryTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating write history: %w", err)
	}

	return entries, nil
}

// PruneHistory deletes history entries older than the given duration.
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteWriteHistoryRepository) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM write_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting write history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseHistoryTimestamp parses a timestamp stored in SQLite. The schema
// default writes RFC 3339, but rows written by SQLite's CURRENT_TIMESTAMP
// use the space-separated form without a zone; both are read as UTC.
func parseHistoryTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("created_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02 15:04:05", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing created_at: %w", err)
}
