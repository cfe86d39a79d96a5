package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
api:
  host: "0.0.0.0"
  port: 8080
devices:
  motor:
    id: "motor_main"
  servo:
    id: "servo_main"
    initial_angle: 45
  valve:
    id: "valve_main"
    initial_open: true
  temperature:
    id: "temp_main"
    latitude: 52.52
    longitude: 13.41
    timeout_seconds: 5
database:
  enabled: true
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Devices.Motor.ID != "motor_main" {
		t.Errorf("Devices.Motor.ID = %q, want %q", cfg.Devices.Motor.ID, "motor_main")
	}

	if cfg.Devices.Servo.InitialAngle != 45 {
		t.Errorf("Devices.Servo.InitialAngle = %d, want 45", cfg.Devices.Servo.InitialAngle)
	}

	if !cfg.Devices.Valve.InitialOpen {
		t.Error("Devices.Valve.InitialOpen = false, want true")
	}

	if cfg.Devices.Temperature.Latitude != 52.52 {
		t.Errorf("Devices.Temperature.Latitude = %v, want 52.52", cfg.Devices.Temperature.Latitude)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	// Sections absent from the file keep their defaults.
	if cfg.WebSocket.Path != "/api/v1/ws" {
		t.Errorf("WebSocket.Path = %q, want default %q", cfg.WebSocket.Path, "/api/v1/ws")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
devices:
  motor:
    initial_speed: 300
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for out-of-range motor speed, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero websocket ping interval",
			mutate:  func(c *Config) { c.WebSocket.PingInterval = 0 },
			wantErr: true,
		},
		{
			name:    "zero websocket pong timeout",
			mutate:  func(c *Config) { c.WebSocket.PongTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative websocket message size",
			mutate:  func(c *Config) { c.WebSocket.MaxMessageSize = -1 },
			wantErr: true,
		},
		{
			name:    "missing motor id",
			mutate:  func(c *Config) { c.Devices.Motor.ID = "" },
			wantErr: true,
		},
		{
			name:    "motor speed out of range",
			mutate:  func(c *Config) { c.Devices.Motor.InitialSpeed = 256 },
			wantErr: true,
		},
		{
			name:    "servo angle out of range",
			mutate:  func(c *Config) { c.Devices.Servo.InitialAngle = 181 },
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			mutate:  func(c *Config) { c.Devices.Temperature.Latitude = 91 },
			wantErr: true,
		},
		{
			name:    "longitude out of range",
			mutate:  func(c *Config) { c.Devices.Temperature.Longitude = -181 },
			wantErr: true,
		},
		{
			name:    "zero temperature timeout",
			mutate:  func(c *Config) { c.Devices.Temperature.TimeoutSeconds = 0 },
			wantErr: true,
		},
		{
			name: "database enabled without path",
			mutate: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Path = ""
			},
			wantErr: true,
		},
		{
			name: "mqtt enabled with invalid qos",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name: "mqtt disabled ignores invalid qos",
			mutate: func(c *Config) {
				c.MQTT.Enabled = false
				c.MQTT.QoS = 3
			},
			wantErr: false,
		},
		{
			name: "influxdb enabled without token",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Token = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("MACHINA_API_HOST", "192.168.1.1")
	t.Setenv("MACHINA_API_PORT", "9090")
	t.Setenv("MACHINA_DATABASE_PATH", "/custom/path.db")
	t.Setenv("MACHINA_MQTT_HOST", "mqtt.example.com")
	t.Setenv("MACHINA_MQTT_USERNAME", "testuser")
	t.Setenv("MACHINA_MQTT_PASSWORD", "testpass")
	t.Setenv("MACHINA_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Devices.Motor.ID == "" {
		t.Error("defaultConfig should have non-empty Devices.Motor.ID")
	}

	if cfg.Devices.Servo.InitialAngle != 90 {
		t.Errorf("defaultConfig Devices.Servo.InitialAngle = %d, want 90", cfg.Devices.Servo.InitialAngle)
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate cleanly, got %v", err)
	}
}
