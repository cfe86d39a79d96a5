package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceMetric writes a single device measurement to InfluxDB.
//
// This is the primary method for recording device telemetry. The write is
// non-blocking; data is batched and sent asynchronously. Writes on a
// disconnected client are silently dropped, keeping telemetry best effort.
//
// Parameters:
//   - deviceID: Unique identifier for the device (e.g., "motor_01")
//   - measurement: The metric name (e.g., "speed", "angle", "temperature_c")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteDeviceMetric("temp_01", "temperature_c", 21.5)
//	client.WriteDeviceMetric("motor_01", "speed", 128)
func (c *Client) WriteDeviceMetric(deviceID string, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_metrics",
		map[string]string{
			"device_id":   deviceID,
			"measurement": measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
