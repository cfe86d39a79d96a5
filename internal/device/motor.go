package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Motor speed bounds.
const (
	MotorSpeedMin = 0
	MotorSpeedMax = 255
)

// Motor is a simulated DC motor holding an integer speed in [0, 255].
//
// Reads and writes on the same motor are mutually exclusive; the stored
// speed is only ever observed fully applied.
type Motor struct {
	id string

	mu    sync.Mutex
	speed int

	// sleep is swapped out in tests to avoid real latency.
	sleep func(time.Duration)
}

// NewMotor creates a motor with the given initial speed.
//
// Returns:
//   - *Motor: Ready-to-use motor
//   - error: ErrOutOfRange if the initial speed is outside [0, 255]
func NewMotor(id string, initialSpeed int) (*Motor, error) {
	if initialSpeed < MotorSpeedMin || initialSpeed > MotorSpeedMax {
		return nil, fmt.Errorf("%w: initial speed %d not in [%d, %d]",
			ErrOutOfRange, initialSpeed, MotorSpeedMin, MotorSpeedMax)
	}
	return &Motor{
		id:    id,
		speed: initialSpeed,
		sleep: time.Sleep,
	}, nil
}

// ID returns the motor's unique identifier.
func (m *Motor) ID() string { return m.id }

// Type returns TypeMotor.
func (m *Motor) Type() Type { return TypeMotor }

// Read returns the current speed after simulated bus latency.
func (m *Motor) Read(ctx context.Context) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sleep(randomLatency(motorReadMin, motorReadMax))
	return m.speed, nil
}

// Write validates the payload and sets a new speed.
//
// The payload must carry an integer "speed" in [0, 255]. Validation
// failures leave the stored speed untouched.
func (m *Motor) Write(ctx context.Context, payload Payload) error {
	speed, err := payload.intField("speed")
	if err != nil {
		return err
	}
	if speed < MotorSpeedMin || speed > MotorSpeedMax {
		return fmt.Errorf("%w: speed %d not in [%d, %d]",
			ErrOutOfRange, speed, MotorSpeedMin, MotorSpeedMax)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sleep(randomLatency(motorWriteMin, motorWriteMax))
	m.speed = speed
	return nil
}

// Status reports the motor's health. It never fails.
func (m *Motor) Status(ctx context.Context) Status {
	return statusOf(ctx, m)
}
