package device

import (
	"context"
	"sync"
	"time"
)

// Valve is a simulated two-state valve holding an open/closed boolean.
type Valve struct {
	id string

	mu   sync.Mutex
	open bool

	sleep func(time.Duration)
}

// NewValve creates a valve in the given initial position.
func NewValve(id string, initialOpen bool) *Valve {
	return &Valve{
		id:    id,
		open:  initialOpen,
		sleep: time.Sleep,
	}
}

// ID returns the valve's unique identifier.
func (v *Valve) ID() string { return v.id }

// Type returns TypeValve.
func (v *Valve) Type() Type { return TypeValve }

// Read returns the current position after simulated actuation latency.
func (v *Valve) Read(ctx context.Context) (any, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.sleep(randomLatency(valveReadMin, valveReadMax))
	return v.open, nil
}

// Write validates the payload and actuates the valve.
//
// The payload must carry a boolean "value". Validation failures leave the
// stored position untouched.
func (v *Valve) Write(ctx context.Context, payload Payload) error {
	open, err := payload.boolField("value")
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.sleep(randomLatency(valveWriteMin, valveWriteMax))
	v.open = open
	return nil
}

// Status reports the valve's health. It never fails.
func (v *Valve) Status(ctx context.Context) Status {
	return statusOf(ctx, v)
}
