// Machina Core - simulated hardware control service
//
// This is the main entry point for the Machina Core application. It
// assembles the simulated device collection from configuration, wires
// the coordinator and API server, and optionally connects the SQLite
// write-history store, the MQTT state mirror, and InfluxDB telemetry.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/machina-project/machina-core/internal/api"
	"github.com/machina-project/machina-core/internal/device"
	"github.com/machina-project/machina-core/internal/infrastructure/config"
	"github.com/machina-project/machina-core/internal/infrastructure/database"
	"github.com/machina-project/machina-core/internal/infrastructure/influxdb"
	"github.com/machina-project/machina-core/internal/infrastructure/logging"
	"github.com/machina-project/machina-core/internal/infrastructure/mqtt"
	"github.com/machina-project/machina-core/internal/machine"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Machina Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Build the simulated device collection
	devices, err := buildDevices(cfg.Devices)
	if err != nil {
		return fmt.Errorf("building devices: %w", err)
	}

	coordinator, err := machine.NewCoordinator(devices)
	if err != nil {
		return fmt.Errorf("creating coordinator: %w", err)
	}
	coordinator.SetLogger(log.With("component", "coordinator"))
	log.Info("device coordinator initialised", "devices", len(devices))

	// Open the write-history database (optional)
	var history device.WriteHistoryRepository
	if cfg.Database.Enabled {
		db, dbErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if schemaErr := db.EnsureSchema(ctx); schemaErr != nil {
			return fmt.Errorf("ensuring database schema: %w", schemaErr)
		}
		history = device.NewSQLiteWriteHistoryRepository(db.DB)
		log.Info("write history enabled", "path", cfg.Database.Path)
	} else {
		log.Info("write history disabled")
	}

	// Connect to MQTT broker (optional state mirror)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT state mirror disabled")
	}

	// Connect to InfluxDB (optional telemetry)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the API server (REST + WebSocket)
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log.With("component", "api"),
		Coordinator: coordinator,
		History:     history,
		MQTT:        mqttClient,
		Influx:      influxClient,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database (if enabled)

	log.Info("Machina Core stopped")
	return nil
}

// buildDevices constructs the simulated device collection from config.
// The set is fixed: one motor, one servo, one valve, one temperature
// sensor.
//
// Parameters:
//   - cfg: Devices section of the configuration
//
// Returns:
//   - []device.Device: Device collection in listing order
//   - error: If any initial value or coordinate is invalid
func buildDevices(cfg config.DevicesConfig) ([]device.Device, error) {
	motor, err := device.NewMotor(cfg.Motor.ID, cfg.Motor.InitialSpeed)
	if err != nil {
		return nil, fmt.Errorf("motor: %w", err)
	}

	servo, err := device.NewServo(cfg.Servo.ID, cfg.Servo.InitialAngle)
	if err != nil {
		return nil, fmt.Errorf("servo: %w", err)
	}

	valve := device.NewValve(cfg.Valve.ID, cfg.Valve.InitialOpen)

	sensor, err := device.NewTemperatureSensor(
		cfg.Temperature.ID,
		cfg.Temperature.Latitude,
		cfg.Temperature.Longitude,
		cfg.Temperature.FetchTimeout(),
	)
	if err != nil {
		return nil, fmt.Errorf("temperature sensor: %w", err)
	}

	return []device.Device{motor, servo, valve, sensor}, nil
}

// getConfigPath returns the configuration file path.
// Uses MACHINA_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MACHINA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
