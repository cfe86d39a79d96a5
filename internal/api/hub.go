package api

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/machina-project/machina-core/internal/infrastructure/logging"
)

// Outbound WebSocket message types.
//
// Every message carries "type" and an RFC3339 "timestamp"; device-bearing
// messages add "device_id" and a "data" payload, error messages add
// "error_code" and "message".
const (
	MsgConnectionEstablished = "connection_established"
	MsgInitialStatus         = "initial_status"
	MsgDeviceStatus          = "device_status"
	MsgAllDeviceStatus       = "all_device_status"
	MsgDeviceUpdate          = "device_update"
	MsgSystemStatus          = "system_status"
	MsgSubscriptionConfirmed = "subscription_confirmed"
	MsgSubscriptionRemoved   = "subscription_removed"
	MsgError                 = "error"
)

// Conn is the transport contract the hub requires from a connection.
//
// SendText delivers one text frame and fails on transport error. The
// gorilla WebSocket connection is adapted to this interface in
// websocket.go; tests substitute in-memory fakes.
type Conn interface {
	SendText(text string) error
}

// Connection is one registered client connection.
//
// A connection is Active from Connect until Disconnect; disconnection is
// terminal and removes it from the active set and from every per-device
// subscriber set atomically.
type Connection struct {
	id    string
	label string
	conn  Conn
}

// ID returns the hub-assigned connection identifier.
func (c *Connection) ID() string { return c.id }

// Label returns the client-supplied label ("anonymous" when absent).
func (c *Connection) Label() string { return c.label }

// Hub is the connection registry for real-time device updates.
//
// It tracks active connections and a per-device subscriber index, and
// fans broadcast messages out to every active connection concurrently.
// A send failure on one connection never aborts or delays sends to the
// others: failures are collected during the fan-out and the failed
// connections are reaped afterwards.
//
// Thread Safety: all methods are safe for concurrent use. The registry
// lock guards the active set and subscriber index as a unit; it is held
// for snapshots and membership changes, never across sends.
type Hub struct {
	logger *logging.Logger

	mu          sync.RWMutex
	active      map[*Connection]struct{}
	subscribers map[string]map[*Connection]struct{}
}

// NewHub creates an empty connection registry.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:      logger,
		active:      make(map[*Connection]struct{}),
		subscribers: make(map[string]map[*Connection]struct{}),
	}
}

// Run blocks until the context is cancelled, then closes every remaining
// connection so their read loops terminate.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Connect registers a transport connection and returns its registry entry.
//
// The new connection is immediately sent a welcome message carrying its
// connection id and the current active-connection count (including
// itself). A failed welcome send disconnects the connection again.
//
// Parameters:
//   - conn: Transport connection satisfying Conn
//   - label: Client-supplied label for logging (may be empty)
//
// Returns:
//   - *Connection: Registered connection handle, Active until Disconnect
func (h *Hub) Connect(conn Conn, label string) *Connection {
	if label == "" {
		label = "anonymous"
	}

	c := &Connection{
		id:    uuid.NewString(),
		label: label,
		conn:  conn,
	}

	h.mu.Lock()
	h.active[c] = struct{}{}
	total := len(h.active)
	h.mu.Unlock()

	h.logger.Info("client connected",
		"connection_id", c.id,
		"client", c.label,
		"total_connections", total,
	)

	h.unicast(c, MsgConnectionEstablished, map[string]any{
		"connection_id":     c.id,
		"client":            c.label,
		"total_connections": total,
	})

	return c
}

// Disconnect removes the connection from the active set and from every
// per-device subscriber set. It is idempotent: disconnecting an already
// closed connection is a no-op.
func (h *Hub) Disconnect(c *Connection) {
	h.mu.Lock()
	_, existed := h.active[c]
	delete(h.active, c)
	for deviceID, subs := range h.subscribers {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.subscribers, deviceID)
		}
	}
	total := len(h.active)
	h.mu.Unlock()

	if existed {
		h.logger.Info("client disconnected",
			"connection_id", c.id,
			"client", c.label,
			"total_connections", total,
		)
	}
}

// Subscribe adds the connection to the device's subscriber set and
// acknowledges with a subscription_confirmed message. Subscribing twice
// is idempotent; each call is acknowledged.
func (h *Hub) Subscribe(c *Connection, deviceID string) {
	h.mu.Lock()
	if _, ok := h.active[c]; ok {
		subs := h.subscribers[deviceID]
		if subs == nil {
			subs = make(map[*Connection]struct{})
			h.subscribers[deviceID] = subs
		}
		subs[c] = struct{}{}
	}
	h.mu.Unlock()

	h.unicast(c, MsgSubscriptionConfirmed, map[string]any{
		"device_id": deviceID,
	})
}

// Unsubscribe removes the connection from the device's subscriber set and
// acknowledges with a subscription_removed message. Unsubscribing from a
// device the connection never subscribed to is treated as success.
func (h *Hub) Unsubscribe(c *Connection, deviceID string) {
	h.mu.Lock()
	if subs, ok := h.subscribers[deviceID]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.subscribers, deviceID)
		}
	}
	h.mu.Unlock()

	h.unicast(c, MsgSubscriptionRemoved, map[string]any{
		"device_id": deviceID,
	})
}

// BroadcastDeviceUpdate fans a device update out to every active
// connection. The per-device subscriber index is maintained for targeted
// delivery but updates are deliberately delivered globally. No-op when
// there are no active connections.
func (h *Hub) BroadcastDeviceUpdate(deviceID string, data any) {
	h.broadcast(map[string]any{
		"type":      MsgDeviceUpdate,
		"timestamp": timestamp(),
		"device_id": deviceID,
		"data":      data,
	})
}

// BroadcastSystemStatus fans a system status message out to every active
// connection.
func (h *Hub) BroadcastSystemStatus(data any) {
	h.broadcast(map[string]any{
		"type":      MsgSystemStatus,
		"timestamp": timestamp(),
		"data":      data,
	})
}

// SendError sends a structured error message to a single connection.
// Errors are never broadcast, and a delivery failure disconnects the
// target connection only.
func (h *Hub) SendError(c *Connection, message, code string) {
	h.unicast(c, MsgError, map[string]any{
		"error_code": code,
		"message":    message,
	})
}

// Unicast sends a message of the given type with extra fields to a single
// connection. A delivery failure disconnects the connection.
func (h *Hub) Unicast(c *Connection, msgType string, fields map[string]any) {
	h.unicast(c, msgType, fields)
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active)
}

// SubscriberCount returns the number of connections subscribed to the
// given device.
func (h *Hub) SubscriberCount(deviceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[deviceID])
}

// unicast marshals and delivers one message to one connection, reaping
// the connection on failure.
func (h *Hub) unicast(c *Connection, msgType string, fields map[string]any) {
	msg := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		msg[k] = v
	}
	msg["type"] = msgType
	msg["timestamp"] = timestamp()

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message", "type", msgType, "error", err)
		return
	}

	if err := c.conn.SendText(string(data)); err != nil {
		h.logger.Debug("unicast failed, disconnecting",
			"connection_id", c.id,
			"type", msgType,
			"error", err,
		)
		h.Disconnect(c)
	}
}

// broadcast implements the two-phase fan-out: snapshot the active set
// under the registry lock, send to every connection concurrently while
// recording failures, then reap failed connections once all sends have
// completed. Best effort, no retry.
func (h *Hub) broadcast(msg map[string]any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}
	text := string(data)

	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.active))
	for c := range h.active {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	failed := make(chan *Connection, len(conns))
	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c *Connection) {
			defer wg.Done()
			if err := c.conn.SendText(text); err != nil {
				failed <- c
			}
		}(c)
	}
	wg.Wait()
	close(failed)

	for c := range failed {
		h.logger.Debug("broadcast send failed, disconnecting", "connection_id", c.id)
		h.Disconnect(c)
	}
}

// closeAll disconnects every connection and closes its transport if the
// transport supports closing.
func (h *Hub) closeAll() {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.active))
	for c := range h.active {
		conns = append(conns, c)
	}
	h.active = make(map[*Connection]struct{})
	h.subscribers = make(map[string]map[*Connection]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		if closer, ok := c.conn.(io.Closer); ok {
			closer.Close() //nolint:errcheck // Best-effort close during shutdown
		}
	}
}

// timestamp returns the current UTC time in the wire format used by all
// outbound messages.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
