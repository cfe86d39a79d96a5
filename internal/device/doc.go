// Package device provides the simulated hardware devices for Machina Core.
//
// A Device is a uniquely identified, typed unit of simulated hardware
// exposing three operations: read the current value, write a new value,
// and report status without ever failing.
//
// # Variants
//
//   - Motor: integer speed in [0, 255], payload key "speed"
//   - Servo: integer angle in [0, 180] degrees, payload key "angle",
//     movement-proportional write latency
//   - Valve: boolean open/closed, payload key "value"
//   - TemperatureSensor: read-only float in degrees Celsius, fetched from
//     the Open-Meteo API for fixed coordinates
//
// # Concurrency
//
// Each stateful device guards its stored value with its own mutex: reads
// and writes on the same device are mutually exclusive, and a read never
// observes a half-applied write. Distinct devices never share a lock, so
// operations on different devices proceed fully in parallel.
//
// Motor, servo and valve simulate realistic bus latency on every
// operation. The sleep function is injectable so tests run without
// real delays.
//
// # Errors
//
// All failures are package sentinels checked with errors.Is:
// write validation fails with ErrInvalidPayload or ErrOutOfRange and
// leaves state untouched; reads may fail with ErrUnreachable, ErrTimedOut
// or ErrInvalidData. Status() converts any read failure into a structured
// error status instead of propagating it.
//
// # Usage
//
//	motor, err := device.NewMotor("motor_01", 0)
//	if err != nil {
//	    return err
//	}
//
//	if err := motor.Write(ctx, device.Payload{"speed": 128}); err != nil {
//	    if errors.Is(err, device.ErrOutOfRange) {
//	        // reject the request
//	    }
//	}
//
//	status := motor.Status(ctx) // never fails
//
// The package also provides WriteHistoryRepository, a SQLite-backed audit
// trail of successful writes. It records previous/new value pairs and is
// never used to restore state after a restart.
package device
