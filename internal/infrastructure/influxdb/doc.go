// Package influxdb provides optional telemetry storage for Machina Core.
//
// It wraps the official influxdb-client-go v2 library with Machina-specific
// patterns for connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package records numeric device values as time-series points:
// motor speed and servo angle after writes, and temperature readings
// after successful sensor polls.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "machina",
//	    Bucket:  "machina",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteDeviceMetric("motor_01", "speed", 128)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via the
// SetOnError callback. Connection and health check errors are returned
// directly. Telemetry is best effort: a failed write never affects the
// device operation that produced the value.
package influxdb
