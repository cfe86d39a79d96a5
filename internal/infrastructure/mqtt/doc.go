// Package mqtt provides the optional MQTT state mirror for Machina Core.
//
// This package manages:
//   - Connection to an MQTT broker with auto-reconnect
//   - Retained device-state publishing after successful writes
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The mirror is publish-only. After every successful device write the API
// layer hands the new status to PublishDeviceState, which mirrors it to
// machina/state/{device_id}. External consumers (dashboards, recorders)
// can follow the machine without holding a WebSocket connection. Machina
// never consumes commands from the broker.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Mirror a device status after a successful write
//	if err := client.PublishDeviceState("motor_01", status); err != nil {
//	    logger.Warn("state mirror publish failed", "error", err)
//	}
package mqtt
