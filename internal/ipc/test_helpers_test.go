package ipc

import (
	"net"
	"path/filepath"
	"testing"
	"time"
)

// startServer runs a fake window manager that answers every exchange on
// every connection with handler. It returns the socket path.
func startServer(t *testing.T, handler func(msgType uint32, payload []byte) (uint32, []byte)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wm.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				for {
					msgType, payload, err := readMessage(c)
					if err != nil {
						return
					}
					replyType, reply := handler(msgType, payload)
					if err := writeMessage(c, replyType, reply); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	return path
}

// answerCommands serves a command connection, replying success to every
// request, until the connection drops.
func answerCommands(conn net.Conn) {
	defer conn.Close()
	for {
		msgType, _, err := readMessage(conn)
		if err != nil {
			return
		}
		if err := writeMessage(conn, msgType, []byte(`[{"success":true}]`)); err != nil {
			return
		}
	}
}

// acceptHandshake accepts the subscribe request on an event connection and
// acknowledges it.
func acceptHandshake(conn net.Conn) bool {
	msgType, _, err := readMessage(conn)
	if err != nil || msgType != MessageSubscribe {
		return false
	}
	return writeMessage(conn, MessageSubscribe, []byte(`{"success":true}`)) == nil
}

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatalf("event feed closed early")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return Event{}
}
