package device

import (
	"context"
	"time"
)

// WriteHistoryEntry represents a single successful device write.
//
// Each entry stores the value before and after the write. This provides a
// local audit trail of control actions; it is never used to restore device
// state after a restart.
type WriteHistoryEntry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// DeviceID is the unique identifier of the device.
	DeviceID string `json:"device_id"`

	// Previous is the value before the write.
	Previous any `json:"previous"`

	// New is the value after the write.
	New any `json:"new"`

	// Action is the human-readable description of the write
	// (e.g. "set_speed", "set_angle", "set_value").
	Action string `json:"action"`

	// CreatedAt is the timestamp of the write (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// WriteHistoryRepository stores and retrieves device write history.
//
// Implementations must be thread-safe and use UTC timestamps.
type WriteHistoryRepository interface {
	// RecordWrite records a successful device write.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - deviceID: Unique device identifier
	//   - previous: Value before the write
	//   - newValue: Value after the write
	//   - action: Description of the write
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	RecordWrite(ctx context.Context, deviceID string, previous, newValue any, action string) error

	// GetHistory returns recent write history for the device.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - deviceID: Unique device identifier
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//
	// Returns:
	//   - []WriteHistoryEntry: Ordered newest-first history entries (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	GetHistory(ctx context.Context, deviceID string, limit int) ([]WriteHistoryEntry, error)
}
