package mqtt

import (
	"encoding/json"
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "machina/state/motor_01")
//   - payload: The message payload (typically JSON, max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Retained Messages:
//   - When true, broker stores the last message for each topic
//   - New subscribers immediately receive the retained message
//   - Use for state topics (device state, system status)
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishRetained publishes a retained message with the configured default QoS.
//
// Use for state updates where new subscribers should receive the current state.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}

// PublishDeviceState mirrors a device state document to machina/state/{deviceID}.
//
// The state is marshalled to JSON and published retained so late joiners
// see the latest value. Failures are returned to the caller, which treats
// the mirror as best effort.
//
// Parameters:
//   - deviceID: Unique device identifier
//   - state: JSON-marshallable state document (typically a device status)
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) PublishDeviceState(deviceID string, state any) error {
	if deviceID == "" {
		return fmt.Errorf("%w: device id is required", ErrInvalidTopic)
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: marshalling state: %w", ErrPublishFailed, err)
	}

	return c.PublishRetained(Topics{}.DeviceState(deviceID), payload)
}
