package ipc

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/scratchd/scratchd/internal/state"
	"github.com/scratchd/scratchd/internal/util"
)

// EventKind classifies entries on the engine-facing feed.
type EventKind string

const (
	EventWindow    EventKind = "window"
	EventWorkspace EventKind = "workspace"
	EventOutput    EventKind = "output"
	EventShutdown  EventKind = "shutdown"

	// EventConnected and EventDisconnected are synthesized by the session
	// around connection lifecycle; the window manager never sends them. A
	// connected entry always precedes any event read on that connection, so
	// a consumer that re-snapshots on it can never act on stale facts.
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
)

// Event is one entry of the event feed.
type Event struct {
	Kind      EventKind
	Change    string
	Container *state.Node
	Raw       json.RawMessage
}

// subscription lists the event classes the daemon consumes.
var subscription = []string{"window", "workspace", "output", "shutdown"}

// subscribe dials the event connection and performs the handshake.
func subscribe(path string) (net.Conn, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect event socket: %w", err)
	}
	payload, err := json.Marshal(subscription)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("encode subscription: %w", err)
	}
	if err := writeMessage(conn, MessageSubscribe, payload); err != nil {
		conn.Close()
		return nil, err
	}
	replyType, reply, err := readMessage(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe reply: %w", err)
	}
	if replyType != MessageSubscribe {
		conn.Close()
		return nil, fmt.Errorf("%w: subscribe answered with type %#x", ErrProtocol, replyType)
	}
	var ack struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(reply, &ack); err != nil || !ack.Success {
		conn.Close()
		return nil, fmt.Errorf("subscribe rejected: %s", reply)
	}
	return conn, nil
}

// parseEvent maps a raw frame to a feed entry. Unknown event types and
// malformed payloads are logged and dropped; only the frame is lost, never
// the connection.
func parseEvent(msgType uint32, payload []byte, logger *util.Logger) (Event, bool) {
	var kind EventKind
	switch msgType {
	case EventTypeWindow:
		kind = EventWindow
	case EventTypeWorkspace:
		kind = EventWorkspace
	case EventTypeOutput:
		kind = EventOutput
	case EventTypeShutdown:
		kind = EventShutdown
	default:
		logger.Debugf("ignoring event type %#x", msgType)
		return Event{}, false
	}
	var body struct {
		Change    string      `json:"change"`
		Container *state.Node `json:"container"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		logger.Warnf("dropping malformed %s event: %v", kind, err)
		return Event{}, false
	}
	return Event{Kind: kind, Change: body.Change, Container: body.Container, Raw: payload}, true
}
