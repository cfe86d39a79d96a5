package machine

import (
	"context"
	"fmt"
	"sync"

	"github.com/machina-project/machina-core/internal/device"
)

// Logger defines the logging interface used by the Coordinator.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DeviceInfo is the static enumeration entry returned by ListDevices.
type DeviceInfo struct {
	ID   string      `json:"device_id"`
	Type device.Type `json:"type"`
}

// Coordinator owns the full device collection and dispatches read, write
// and status calls to individual devices.
//
// The collection and its by-id/by-type indexes are built once at
// construction; devices are not added or removed at runtime. All methods
// are safe for concurrent use.
type Coordinator struct {
	devices []device.Device
	byID    map[string]device.Device
	byType  map[device.Type][]device.Device
	logger  Logger
}

// NewCoordinator creates a coordinator over the given devices.
//
// Parameters:
//   - devices: Full device collection, order preserved for listings
//
// Returns:
//   - *Coordinator: Ready-to-use coordinator
//   - error: If two devices share an ID
func NewCoordinator(devices []device.Device) (*Coordinator, error) {
	byID := make(map[string]device.Device, len(devices))
	byType := make(map[device.Type][]device.Device)

	for _, d := range devices {
		if _, exists := byID[d.ID()]; exists {
			return nil, fmt.Errorf("duplicate device id %q", d.ID())
		}
		byID[d.ID()] = d
		byType[d.Type()] = append(byType[d.Type()], d)
	}

	return &Coordinator{
		devices: devices,
		byID:    byID,
		byType:  byType,
		logger:  noopLogger{},
	}, nil
}

// SetLogger sets the logger for the coordinator.
func (c *Coordinator) SetLogger(logger Logger) {
	c.logger = logger
}

// DeviceByID returns the device with the given ID.
// Returns device.ErrNotFound if the ID is unknown.
func (c *Coordinator) DeviceByID(id string) (device.Device, error) {
	d, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", device.ErrNotFound, id)
	}
	return d, nil
}

// DevicesByType returns all devices of the given type, in collection order.
// The returned slice may be empty.
func (c *Coordinator) DevicesByType(t device.Type) []device.Device {
	return c.byType[t]
}

// Read returns the current value of the device with the given ID.
func (c *Coordinator) Read(ctx context.Context, id string) (any, error) {
	d, err := c.DeviceByID(id)
	if err != nil {
		return nil, err
	}
	return d.Read(ctx)
}

// Write dispatches a write payload to the device with the given ID.
func (c *Coordinator) Write(ctx context.Context, id string, payload device.Payload) error {
	d, err := c.DeviceByID(id)
	if err != nil {
		return err
	}

	if err := d.Write(ctx, payload); err != nil {
		c.logger.Debug("device write rejected", "device_id", id, "error", err)
		return err
	}

	c.logger.Info("device written", "device_id", id, "type", d.Type())
	return nil
}

// Status returns the health status of the device with the given ID.
func (c *Coordinator) Status(ctx context.Context, id string) (device.Status, error) {
	d, err := c.DeviceByID(id)
	if err != nil {
		return device.Status{}, err
	}
	return d.Status(ctx), nil
}

// StatusAll returns the status of every device, keyed by device ID.
//
// Statuses are collected concurrently and in isolation: one slow device
// never blocks or corrupts another device's entry, and Status() itself
// never fails.
func (c *Coordinator) StatusAll(ctx context.Context) map[string]device.Status {
	statuses := make(map[string]device.Status, len(c.devices))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, d := range c.devices {
		d := d
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := d.Status(ctx)
			mu.Lock()
			statuses[d.ID()] = status
			mu.Unlock()
		}()
	}
	wg.Wait()

	return statuses
}

// ListDevices returns the static {id, type} enumeration of all devices.
// No device I/O is performed.
func (c *Coordinator) ListDevices() []DeviceInfo {
	infos := make([]DeviceInfo, 0, len(c.devices))
	for _, d := range c.devices {
		infos = append(infos, DeviceInfo{ID: d.ID(), Type: d.Type()})
	}
	return infos
}

// firstOfType returns the first device of the given type.
// Returns device.ErrNoSuchType when the type has no devices.
func (c *Coordinator) firstOfType(t device.Type) (device.Device, error) {
	devices := c.byType[t]
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: %q", device.ErrNoSuchType, t)
	}
	return devices[0], nil
}

// MotorSpeed returns the speed of the first motor.
func (c *Coordinator) MotorSpeed(ctx context.Context) (int, error) {
	d, err := c.firstOfType(device.TypeMotor)
	if err != nil {
		return 0, err
	}
	value, err := d.Read(ctx)
	if err != nil {
		return 0, err
	}
	speed, ok := value.(int)
	if !ok {
		return 0, fmt.Errorf("%w: motor value %v is not an integer", device.ErrInvalidData, value)
	}
	return speed, nil
}

// SetMotorSpeed sets the speed of the first motor.
func (c *Coordinator) SetMotorSpeed(ctx context.Context, speed int) error {
	d, err := c.firstOfType(device.TypeMotor)
	if err != nil {
		return err
	}
	return d.Write(ctx, device.Payload{"speed": speed})
}

// ValveOpen returns the position of the first valve.
func (c *Coordinator) ValveOpen(ctx context.Context) (bool, error) {
	d, err := c.firstOfType(device.TypeValve)
	if err != nil {
		return false, err
	}
	value, err := d.Read(ctx)
	if err != nil {
		return false, err
	}
	open, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: valve value %v is not a boolean", device.ErrInvalidData, value)
	}
	return open, nil
}

// SetValveOpen sets the position of the first valve.
func (c *Coordinator) SetValveOpen(ctx context.Context, open bool) error {
	d, err := c.firstOfType(device.TypeValve)
	if err != nil {
		return err
	}
	return d.Write(ctx, device.Payload{"value": open})
}

// Temperature returns the reading of the first temperature sensor.
func (c *Coordinator) Temperature(ctx context.Context) (float64, error) {
	d, err := c.firstOfType(device.TypeTemperature)
	if err != nil {
		return 0, err
	}
	value, err := d.Read(ctx)
	if err != nil {
		return 0, err
	}
	temperature, ok := value.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: temperature value %v is not a float", device.ErrInvalidData, value)
	}
	return temperature, nil
}
