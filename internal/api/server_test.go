package api

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/machina-project/machina-core/internal/device"
	"github.com/machina-project/machina-core/internal/infrastructure/config"
	"github.com/machina-project/machina-core/internal/infrastructure/logging"
	"github.com/machina-project/machina-core/internal/machine"
)

// newTestServer builds a Server over a motor, a servo and a valve, backed
// by an in-memory write-history store. The temperature sensor is left out
// so handler tests never touch the network.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	motor, err := device.NewMotor("motor_01", 0)
	if err != nil {
		t.Fatalf("NewMotor() error = %v", err)
	}
	servo, err := device.NewServo("servo_01", 90)
	if err != nil {
		t.Fatalf("NewServo() error = %v", err)
	}
	valve := device.NewValve("valve_01", false)

	coordinator, err := machine.NewCoordinator([]device.Device{motor, servo, valve})
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}

	server, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Timeouts: config.APITimeoutConfig{Read: 30, Write: 30, Idle: 60},
		},
		WS: config.WebSocketConfig{
			Path:           "/api/v1/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:      testLogger(),
		Coordinator: coordinator,
		History:     device.NewSQLiteWriteHistoryRepository(newHistoryDB(t)),
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return server
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

// newHistoryDB opens an in-memory SQLite database with the write-history
// schema applied.
func newHistoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

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
		t.Fatalf("failed to create test schema: %v", err)
	}
	return db
}

func TestNew_RequiresDependencies(t *testing.T) {
	coordinator, err := machine.NewCoordinator(nil)
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}

	if _, err := New(Deps{Coordinator: coordinator}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: testLogger()}); err == nil {
		t.Error("New() without coordinator should fail")
	}
	if _, err := New(Deps{Logger: testLogger(), Coordinator: coordinator}); err != nil {
		t.Errorf("New() with required deps error = %v", err)
	}
}
