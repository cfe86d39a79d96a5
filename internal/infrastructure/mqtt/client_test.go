package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// Topic Builder Tests
// =============================================================================

func TestTopics_DeviceState(t *testing.T) {
	got := Topics{}.DeviceState("motor_01")
	want := "machina/state/motor_01"
	if got != want {
		t.Errorf("DeviceState() = %q, want %q", got, want)
	}
}

func TestTopics_SystemStatus(t *testing.T) {
	got := Topics{}.SystemStatus()
	want := "machina/system/status"
	if got != want {
		t.Errorf("SystemStatus() = %q, want %q", got, want)
	}
}

// =============================================================================
// Status Payload Tests
// =============================================================================

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus string
	}{
		{name: "online", payload: buildOnlinePayload("machina-test"), wantStatus: "online"},
		{name: "offline", payload: buildOfflinePayload("machina-test"), wantStatus: "offline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc map[string]any
			if err := json.Unmarshal([]byte(tt.payload), &doc); err != nil {
				t.Fatalf("payload is not valid JSON: %v", err)
			}
			if doc["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %q", doc["status"], tt.wantStatus)
			}
			if doc["client_id"] != "machina-test" {
				t.Errorf("client_id = %v, want %q", doc["client_id"], "machina-test")
			}
			if doc["timestamp"] == "" {
				t.Error("timestamp is empty")
			}
		})
	}
}

// =============================================================================
// Publish Validation Tests
// =============================================================================

// A zero-value Client is never connected, so validation errors surface
// before any broker interaction.
func TestPublish_Validation(t *testing.T) {
	c := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{
			name:    "empty topic",
			topic:   "",
			payload: []byte("{}"),
			qos:     1,
			wantErr: ErrInvalidTopic,
		},
		{
			name:    "invalid qos",
			topic:   "machina/state/motor_01",
			payload: []byte("{}"),
			qos:     3,
			wantErr: ErrInvalidQoS,
		},
		{
			name:    "oversized payload",
			topic:   "machina/state/motor_01",
			payload: []byte(strings.Repeat("x", maxPayloadSize+1)),
			qos:     1,
			wantErr: ErrPublishFailed,
		},
		{
			name:    "not connected",
			topic:   "machina/state/motor_01",
			payload: []byte("{}"),
			qos:     1,
			wantErr: ErrNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishDeviceState_Validation(t *testing.T) {
	c := &Client{}

	if err := c.PublishDeviceState("", map[string]any{"value": 1}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("PublishDeviceState(empty id) error = %v, want ErrInvalidTopic", err)
	}

	// Unmarshallable state fails before the connection check.
	if err := c.PublishDeviceState("motor_01", make(chan int)); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("PublishDeviceState(chan) error = %v, want ErrPublishFailed", err)
	}

	// Valid input on a disconnected client fails with ErrNotConnected.
	if err := c.PublishDeviceState("motor_01", map[string]any{"value": 1}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishDeviceState() error = %v, want ErrNotConnected", err)
	}
}
