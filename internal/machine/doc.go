// Package machine provides the Device Coordinator for Machina Core.
//
// The Coordinator owns the full device collection, indexes it by id and by
// type at construction time, and dispatches read/write/status calls to
// individual devices. It is the single entry point the API layer uses to
// talk to hardware.
//
// # Key Operations
//
//   - DeviceByID / DevicesByType: O(1) lookups over indexes built once
//   - Read / Write / Status: resolve the device or fail with
//     device.ErrNotFound, then delegate
//   - StatusAll: concurrent per-device status collection with failure
//     isolation
//   - ListDevices: static enumeration, no device I/O
//   - MotorSpeed / SetMotorSpeed, ValveOpen / SetValveOpen, Temperature:
//     convenience accessors over the first device of a type
//
// # Thread Safety
//
// The Coordinator itself is immutable after construction, so all methods
// are safe for concurrent use; per-device exclusion is enforced by the
// devices themselves.
package machine
