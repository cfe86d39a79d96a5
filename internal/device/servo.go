package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Servo angle bounds in degrees.
const (
	ServoAngleMin = 0
	ServoAngleMax = 180
)

// Servo is a simulated positional servo holding an angle in [0, 180] degrees.
//
// Write latency is movement-proportional: moving further takes longer,
// mirroring the sweep time of a physical servo horn.
type Servo struct {
	id string

	mu    sync.Mutex
	angle int

	// sleep is swapped out in tests to observe requested latencies
	// without actually sleeping.
	sleep func(time.Duration)
}

// NewServo creates a servo at the given initial angle.
//
// Returns:
//   - *Servo: Ready-to-use servo
//   - error: ErrOutOfRange if the initial angle is outside [0, 180]
func NewServo(id string, initialAngle int) (*Servo, error) {
	if initialAngle < ServoAngleMin || initialAngle > ServoAngleMax {
		return nil, fmt.Errorf("%w: initial angle %d not in [%d, %d]",
			ErrOutOfRange, initialAngle, ServoAngleMin, ServoAngleMax)
	}
	return &Servo{
		id:    id,
		angle: initialAngle,
		sleep: time.Sleep,
	}, nil
}

// ID returns the servo's unique identifier.
func (s *Servo) ID() string { return s.id }

// Type returns TypeServo.
func (s *Servo) Type() Type { return TypeServo }

// Read returns the current angle after simulated bus latency.
func (s *Servo) Read(ctx context.Context) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sleep(randomLatency(servoReadMin, servoReadMax))
	return s.angle, nil
}

// Write validates the payload and sweeps the servo to a new angle.
//
// The payload must carry an integer "angle" in [0, 180]. The simulated
// sweep time grows with the distance from the current angle. Validation
// failures leave the stored angle untouched.
func (s *Servo) Write(ctx context.Context, payload Payload) error {
	angle, err := payload.intField("angle")
	if err != nil {
		return err
	}
	if angle < ServoAngleMin || angle > ServoAngleMax {
		return fmt.Errorf("%w: angle %d not in [%d, %d]",
			ErrOutOfRange, angle, ServoAngleMin, ServoAngleMax)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sleep(servoMoveLatency(angle - s.angle))
	s.angle = angle
	return nil
}

// Status reports the servo's health. It never fails.
func (s *Servo) Status(ctx context.Context) Status {
	return statusOf(ctx, s)
}
