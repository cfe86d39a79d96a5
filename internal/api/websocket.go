package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/machina-project/machina-core/internal/device"
)

// WebSocket client actions.
const (
	ActionSubscribe    = "subscribe"
	ActionUnsubscribe  = "unsubscribe"
	ActionGetStatus    = "get_status"
	ActionGetAllStatus = "get_all_status"
)

// WebSocket error codes sent back to misbehaving clients. Protocol
// errors never close the connection.
const (
	WSErrCodeJSON          = "json_error"
	WSErrCodeValidation    = "validation_error"
	WSErrCodeDeviceMissing = "device_not_found"
	WSErrCodeUnknownAction = "unknown_action"
	WSErrCodeInternal      = "internal_error"
)

// deviceOpTimeout bounds coordinator calls made on behalf of a WebSocket
// client. Generous because a temperature read is a network round trip.
const deviceOpTimeout = 15 * time.Second

// wsClientMessage is the inbound message format.
type wsClientMessage struct {
	Action   string `json:"action"`
	DeviceID string `json:"device_id,omitempty"`
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// wsConn adapts a gorilla WebSocket connection to the hub's Conn
// contract. Writes are serialized with a mutex because the hub sends
// from multiple goroutines during broadcast fan-out.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

// SendText writes one text frame, failing on transport error or when the
// write deadline expires.
func (w *wsConn) SendText(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	//nolint:errcheck // Best-effort deadline; write error caught below
	w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// ping sends a protocol-level ping frame under the same write lock.
func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	//nolint:errcheck // Best-effort deadline; ping error caught below
	w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

// Close closes the underlying transport connection.
func (w *wsConn) Close() error {
	return w.conn.Close()
}

// handleWebSocket upgrades the HTTP connection and runs the client
// session until the peer disconnects.
//
// Session start: register with the hub (which sends the
// connection_established welcome), then send an initial_status snapshot
// of every device. After that the session is request driven: subscribe,
// unsubscribe, get_status and get_all_status actions, each answered on
// the same connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	pongWait := time.Duration(s.wsCfg.PongTimeout) * time.Second
	wc := &wsConn{conn: raw, writeTimeout: pongWait}

	conn := s.hub.Connect(wc, r.URL.Query().Get("client_id"))
	defer func() {
		s.hub.Disconnect(conn)
		wc.Close() //nolint:errcheck // Transport teardown
	}()

	s.sendInitialStatus(conn)

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(wc, done)

	s.readLoop(wc, conn)
}

// sendInitialStatus pushes the full device status snapshot to a freshly
// connected client.
func (s *Server) sendInitialStatus(conn *Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), deviceOpTimeout)
	defer cancel()

	s.hub.Unicast(conn, MsgInitialStatus, map[string]any{
		"data": s.coordinator.StatusAll(ctx),
	})
}

// pingLoop sends protocol-level pings until the session ends. A failed
// ping is ignored here; the read deadline expiring tears the session down.
func (s *Server) pingLoop(wc *wsConn, done <-chan struct{}) {
	interval := time.Duration(s.wsCfg.PingInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := wc.ping(); err != nil {
				return
			}
		}
	}
}

// readLoop reads client messages until the connection closes or the read
// deadline expires.
func (s *Server) readLoop(wc *wsConn, conn *Connection) {
	pingInterval := time.Duration(s.wsCfg.PingInterval) * time.Second
	pongWait := time.Duration(s.wsCfg.PongTimeout) * time.Second
	deadline := pingInterval + pongWait

	wc.conn.SetReadLimit(int64(s.wsCfg.MaxMessageSize))
	//nolint:errcheck // Best-effort deadline on connection setup
	wc.conn.SetReadDeadline(time.Now().Add(deadline))
	wc.conn.SetPongHandler(func(string) error {
		return wc.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, message, err := wc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", "connection_id", conn.ID(), "error", err)
			} else {
				s.logger.Debug("websocket closed", "connection_id", conn.ID(), "error", err)
			}
			return
		}
		// Any client message resets the read deadline (keeps connection
		// alive even if the client doesn't answer protocol-level pings).
		//nolint:errcheck // Best-effort deadline reset
		wc.conn.SetReadDeadline(time.Now().Add(deadline))
		s.handleClientMessage(conn, message)
	}
}

// handleClientMessage dispatches one inbound message. Malformed or
// unknown requests produce a structured error message back to the
// originating connection and never close it.
func (s *Server) handleClientMessage(conn *Connection, data []byte) {
	var msg wsClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.hub.SendError(conn, "invalid JSON message", WSErrCodeJSON)
		return
	}

	switch msg.Action {
	case ActionSubscribe, ActionUnsubscribe, ActionGetStatus:
		if msg.DeviceID == "" {
			s.hub.SendError(conn, "device_id is required for action "+msg.Action, WSErrCodeValidation)
			return
		}
		if _, err := s.coordinator.DeviceByID(msg.DeviceID); err != nil {
			s.hub.SendError(conn, "unknown device: "+msg.DeviceID, WSErrCodeDeviceMissing)
			return
		}
		s.handleDeviceAction(conn, msg)

	case ActionGetAllStatus:
		ctx, cancel := context.WithTimeout(context.Background(), deviceOpTimeout)
		defer cancel()
		s.hub.Unicast(conn, MsgAllDeviceStatus, map[string]any{
			"data": s.coordinator.StatusAll(ctx),
		})

	default:
		s.hub.SendError(conn, "unknown action: "+msg.Action, WSErrCodeUnknownAction)
	}
}

// handleDeviceAction runs one of the per-device actions after the device
// id has been validated.
func (s *Server) handleDeviceAction(conn *Connection, msg wsClientMessage) {
	switch msg.Action {
	case ActionSubscribe:
		s.hub.Subscribe(conn, msg.DeviceID)
	case ActionUnsubscribe:
		s.hub.Unsubscribe(conn, msg.DeviceID)
	case ActionGetStatus:
		ctx, cancel := context.WithTimeout(context.Background(), deviceOpTimeout)
		defer cancel()

		status, err := s.coordinator.Status(ctx, msg.DeviceID)
		if err != nil {
			// Collection is immutable, so the device cannot have vanished
			// since validation; treat a failure here as internal.
			if errors.Is(err, device.ErrNotFound) {
				s.hub.SendError(conn, "unknown device: "+msg.DeviceID, WSErrCodeDeviceMissing)
				return
			}
			s.hub.SendError(conn, "status check failed", WSErrCodeInternal)
			return
		}
		s.hub.Unicast(conn, MsgDeviceStatus, map[string]any{
			"device_id": msg.DeviceID,
			"data":      status,
		})
	}
}
