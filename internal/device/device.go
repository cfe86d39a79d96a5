package device

import (
	"context"
	"fmt"
	"math"
)

// Type identifies a device variant.
type Type string

// Supported device types.
const (
	TypeMotor       Type = "motor"
	TypeServo       Type = "servo"
	TypeValve       Type = "valve"
	TypeTemperature Type = "temperature"
)

// Payload is the write request body for a device.
// Each variant reads exactly one key from it (speed, angle, or value).
type Payload map[string]any

// Health status values reported by Status().
const (
	StatusOnline = "online"
	StatusError  = "error"
)

// Status is the uniform health-check result for a device.
//
// It is the shape used by device listings and by every device-bearing
// real-time message. Exactly one of Value or Message is meaningful:
// Value when Status is "online", Message when Status is "error".
type Status struct {
	DeviceID string `json:"device_id"`
	Type     Type   `json:"type"`
	Status   string `json:"status"`
	Value    any    `json:"value,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Device is a uniquely identified, typed unit of simulated hardware.
//
// Implementations must be safe for concurrent use: reads and writes on the
// same device are mutually exclusive, operations on distinct devices never
// contend on a shared lock.
type Device interface {
	// ID returns the immutable unique identifier.
	ID() string

	// Type returns the variant tag.
	Type() Type

	// Read returns the current value. It may fail with ErrUnreachable,
	// ErrTimedOut, or ErrInvalidData; it never mutates state.
	Read(ctx context.Context) (any, error)

	// Write validates the payload and atomically replaces the stored value.
	// It fails with ErrInvalidPayload or ErrOutOfRange without mutating
	// state on failure.
	Write(ctx context.Context, payload Payload) error

	// Status reports the device's health. It never fails: a read failure
	// is converted into an error status carrying the failure message.
	Status(ctx context.Context) Status
}

// statusOf implements the uniform Status contract on top of Read.
// A read failure degrades to an error status instead of propagating,
// so listing and aggregation never abort on one bad device.
func statusOf(ctx context.Context, d Device) Status {
	value, err := d.Read(ctx)
	if err != nil {
		return Status{
			DeviceID: d.ID(),
			Type:     d.Type(),
			Status:   StatusError,
			Message:  err.Error(),
		}
	}
	return Status{
		DeviceID: d.ID(),
		Type:     d.Type(),
		Status:   StatusOnline,
		Value:    value,
	}
}

// intField extracts an integer value from the payload.
//
// JSON decoding yields float64 for all numbers, so integral floats are
// accepted; a fractional value or a non-numeric type fails with
// ErrInvalidPayload.
func (p Payload) intField(key string) (int, error) {
	raw, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing field %q", ErrInvalidPayload, key)
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: field %q must be an integer", ErrInvalidPayload, key)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: field %q must be an integer, got %T", ErrInvalidPayload, key, raw)
	}
}

// boolField extracts a boolean value from the payload.
func (p Payload) boolField(key string) (bool, error) {
	raw, ok := p[key]
	if !ok {
		return false, fmt.Errorf("%w: missing field %q", ErrInvalidPayload, key)
	}

	v, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%w: field %q must be a boolean, got %T", ErrInvalidPayload, key, raw)
	}
	return v, nil
}
