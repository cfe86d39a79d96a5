package device

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupWriteHistoryTestDB creates an in-memory SQLite database with the write_history table.
func setupWriteHistoryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE write_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL,
			previous_value TEXT NOT NULL,
			new_value TEXT NOT NULL,
			action TEXT NOT NULL DEFAULT 'write',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE INDEX idx_write_history_device ON write_history(device_id, created_at DESC);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// insertWriteHistoryRow inserts a write history row with a specific timestamp.
func insertWriteHistoryRow(t *testing.T, db *sql.DB, deviceID, previous, newValue, action string, createdAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO write_history (device_id, previous_value, new_value, action, created_at) VALUES (?, ?, ?, ?, ?)",
		deviceID,
		previous,
		newValue,
		action,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("failed to insert write history row: %v", err)
	}
}

// TestRecordWrite verifies write history inserts and retrieval.
func TestRecordWrite(t *testing.T) {
	db := setupWriteHistoryTestDB(t)
	repo := NewSQLiteWriteHistoryRepository(db)
	ctx := context.Background()

	if err := repo.RecordWrite(ctx, "motor_01", 0, 128, "set_speed"); err != nil {
		t.Fatalf("RecordWrite() error = %v", err)
	}

	entries, err := repo.GetHistory(ctx, "motor_01", 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}

	entry := entries[0]
	if entry.DeviceID != "motor_01" {
		t.Errorf("DeviceID = %q, want %q", entry.DeviceID, "motor_01")
	}
	if entry.Action != "set_speed" {
		t.Errorf("Action = %q, want %q", entry.Action, "set_speed")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero, want non-zero")
	}
	// Values round-trip through JSON, so integers come back as float64.
	if prev, ok := entry.Previous.(float64); !ok || prev != 0 {
		t.Errorf("Previous = %v, want 0", entry.Previous)
	}
	if newValue, ok := entry.New.(float64); !ok || newValue != 128 {
		t.Errorf("New = %v, want 128", entry.New)
	}
}

// TestGetHistory_OrderAndLimit verifies ordering and limit enforcement.
func TestGetHistory_OrderAndLimit(t *testing.T) {
	db := setupWriteHistoryTestDB(t)
	repo := NewSQLiteWriteHistoryRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertWriteHistoryRow(t, db, "valve_01", "false", "true", "set_value", now.Add(-2*time.Hour))
	insertWriteHistoryRow(t, db, "valve_01", "true", "false", "set_value", now.Add(-1*time.Hour))
	insertWriteHistoryRow(t, db, "valve_01", "false", "true", "set_value", now)
	insertWriteHistoryRow(t, db, "servo_01", "90", "45", "set_angle", now)

	entries, err := repo.GetHistory(ctx, "valve_01", 2)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}

	if !entries[0].CreatedAt.Equal(now) {
		t.Errorf("entry[0] CreatedAt = %s, want %s", entries[0].CreatedAt, now)
	}
	if !entries[1].CreatedAt.Equal(now.Add(-1 * time.Hour)) {
		t.Errorf("entry[1] CreatedAt = %s, want %s", entries[1].CreatedAt, now.Add(-1*time.Hour))
	}
}

// TestGetHistory_SQLiteCurrentTimestamp verifies rows stamped by SQLite's
// CURRENT_TIMESTAMP (space-separated, no zone) are read back as UTC.
func TestGetHistory_SQLiteCurrentTimestamp(t *testing.T) {
	db := setupWriteHistoryTestDB(t)
	repo := NewSQLiteWriteHistoryRepository(db)
	ctx := context.Background()

	_, err := db.Exec(
		"INSERT INTO write_history (device_id, previous_value, new_value, action, created_at) VALUES (?, ?, ?, ?, ?)",
		"motor_01", "0", "42", "set_speed", "2026-08-23 14:30:00",
	)
	if err != nil {
		t.Fatalf("failed to insert row: %v", err)
	}

	entries, err := repo.GetHistory(ctx, "motor_01", 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}

	want := time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC)
	if !entries[0].CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %s, want %s", entries[0].CreatedAt, want)
	}
}

// TestPruneHistory verifies old entries are removed.
func TestPruneHistory(t *testing.T) {
	db := setupWriteHistoryTestDB(t)
	repo := NewSQLiteWriteHistoryRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertWriteHistoryRow(t, db, "motor_01", "0", "50", "set_speed", now.Add(-40*24*time.Hour))
	insertWriteHistoryRow(t, db, "motor_01", "50", "100", "set_speed", now.Add(-12*time.Hour))

	deleted, err := repo.PruneHistory(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("PruneHistory() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	entries, err := repo.GetHistory(ctx, "motor_01", 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}
	if !entries[0].CreatedAt.Equal(now.Add(-12 * time.Hour)) {
		t.Errorf("remaining CreatedAt = %s, want %s", entries[0].CreatedAt, now.Add(-12*time.Hour))
	}
}
