package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/machina-project/machina-core/internal/device"
)

// DeviceUpdateRequest is the body of POST /api/v1/devices/{id}.
//
// Exactly one field must be set; which one depends on the device type:
// speed for motors, angle for servos, state for valves. A temperature
// sensor rejects every write.
type DeviceUpdateRequest struct {
	Speed *int  `json:"speed,omitempty"`
	Angle *int  `json:"angle,omitempty"`
	State *bool `json:"state,omitempty"`
}

// DeviceUpdate describes the outcome of a successful device write. It is
// both the REST response body and the data payload of the device_update
// broadcast.
type DeviceUpdate struct {
	DeviceID string      `json:"device_id"`
	Type     device.Type `json:"type"`
	Previous any         `json:"previous_state"`
	New      any         `json:"new_state"`
	Changed  bool        `json:"changed"`
	Action   string      `json:"action"`
	Message  string      `json:"message,omitempty"`
}

// handleListDevices returns the current status of every device.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	statuses := s.coordinator.StatusAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": statuses,
		"count":   len(statuses),
	})
}

// handleGetDevice returns the status of a single device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := s.coordinator.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// handleUpdateDevice writes a new value to a device.
//
// On success the response carries the previous and new value plus a
// changed flag, and a detached goroutine broadcasts the update to all
// WebSocket connections and mirrors it to MQTT/InfluxDB. Side-effect
// failures are logged, never propagated to the HTTP response.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.coordinator.DeviceByID(id)
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}

	var req DeviceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	payload, action, err := req.toPayload()
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	ctx := r.Context()

	// Previous value before the write. Write validation failures leave
	// the device untouched, so a pre-read is safe to report afterwards.
	previous, readErr := dev.Read(ctx)
	if readErr != nil {
		previous = nil
	}

	if err := s.coordinator.Write(ctx, id, payload); err != nil {
		writeDeviceError(w, err)
		return
	}

	newValue, err := dev.Read(ctx)
	if err != nil {
		writeDeviceError(w, err)
		return
	}

	update := DeviceUpdate{
		DeviceID: id,
		Type:     dev.Type(),
		Previous: previous,
		New:      newValue,
		Changed:  previous != newValue,
		Action:   action,
		Message:  fmt.Sprintf("%s %s", id, action),
	}

	s.recordWrite(ctx, update)
	go s.notifyDeviceUpdate(update)

	writeJSON(w, http.StatusOK, update)
}

// handleGetDeviceHistory returns recent write history for a device,
// newest first. An empty list is returned when history storage is
// disabled.
func (s *Server) handleGetDeviceHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.coordinator.DeviceByID(id); err != nil {
		writeNotFound(w, "device not found")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		limit = parsed
	}

	entries := []device.WriteHistoryEntry{}
	if s.history != nil {
		var err error
		entries, err = s.history.GetHistory(r.Context(), id, limit)
		if err != nil {
			s.logger.Error("history query failed", "device_id", id, "error", err)
			writeInternalError(w, "failed to query history")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"history":   entries,
		"count":     len(entries),
	})
}

// toPayload converts the typed update request into a device write payload
// and the action name recorded in history and broadcasts.
func (r DeviceUpdateRequest) toPayload() (device.Payload, string, error) {
	set := 0
	if r.Speed != nil {
		set++
	}
	if r.Angle != nil {
		set++
	}
	if r.State != nil {
		set++
	}
	if set == 0 {
		return nil, "", errors.New("one of speed, angle or state is required")
	}
	if set > 1 {
		return nil, "", errors.New("exactly one of speed, angle or state may be set")
	}

	switch {
	case r.Speed != nil:
		return device.Payload{"speed": *r.Speed}, "set_speed", nil
	case r.Angle != nil:
		return device.Payload{"angle": *r.Angle}, "set_angle", nil
	default:
		return device.Payload{"value": *r.State}, "set_value", nil
	}
}

// recordWrite appends the write to the audit trail. Best effort: a
// storage failure is logged and the request still succeeds.
func (s *Server) recordWrite(ctx context.Context, u DeviceUpdate) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordWrite(ctx, u.DeviceID, u.Previous, u.New, u.Action); err != nil {
		s.logger.Warn("write history record failed", "device_id", u.DeviceID, "error", err)
	}
}

// notifyDeviceUpdate fans the update out to WebSocket clients and mirrors
// it to the optional MQTT and InfluxDB backends. Runs detached from the
// HTTP request; every failure is logged and swallowed.
func (s *Server) notifyDeviceUpdate(u DeviceUpdate) {
	s.hub.BroadcastDeviceUpdate(u.DeviceID, u)

	if s.mqtt != nil && s.mqtt.IsConnected() {
		state := map[string]any{
			"device_id": u.DeviceID,
			"type":      u.Type,
			"value":     u.New,
			"updated":   time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.mqtt.PublishDeviceState(u.DeviceID, state); err != nil {
			s.logger.Debug("mqtt state publish failed", "device_id", u.DeviceID, "error", err)
		}
	}

	if s.influx != nil {
		if measurement, value, ok := metricFor(u.Type, u.New); ok {
			s.influx.WriteDeviceMetric(u.DeviceID, measurement, value)
		}
	}
}

// metricFor maps a written device value to a numeric telemetry point.
func metricFor(t device.Type, value any) (string, float64, bool) {
	switch t {
	case device.TypeMotor:
		if v, ok := value.(int); ok {
			return "speed", float64(v), true
		}
	case device.TypeServo:
		if v, ok := value.(int); ok {
			return "angle", float64(v), true
		}
	case device.TypeValve:
		if v, ok := value.(bool); ok {
			open := 0.0
			if v {
				open = 1.0
			}
			return "open", open, true
		}
	case device.TypeTemperature:
		if v, ok := value.(float64); ok {
			return "temperature_c", v, true
		}
	}
	return "", 0, false
}
