package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a device ID does not exist.
	ErrNotFound = errors.New("device: not found")

	// ErrNoSuchType is returned when no device of the requested type exists.
	ErrNoSuchType = errors.New("device: no device of type")

	// ErrInvalidPayload is returned when a write payload has a missing or
	// wrongly typed field.
	ErrInvalidPayload = errors.New("device: invalid payload")

	// ErrOutOfRange is returned when a write value lies outside the
	// device's valid domain.
	ErrOutOfRange = errors.New("device: value out of range")

	// ErrUnreachable is returned when a device or its backing network
	// endpoint is unavailable.
	ErrUnreachable = errors.New("device: unreachable")

	// ErrTimedOut is returned when a read exceeds its deadline.
	ErrTimedOut = errors.New("device: timed out")

	// ErrInvalidData is returned when an external payload is malformed.
	ErrInvalidData = errors.New("device: invalid data")
)
