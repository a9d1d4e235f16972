package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// magic prefixes every frame of the i3/sway IPC protocol.
const magic = "i3-ipc"

// headerLen is magic plus two little-endian uint32s: payload length and type.
const headerLen = len(magic) + 8

// maxPayload bounds a single frame. Trees on busy sessions reach a few MiB;
// anything near this limit means the stream is corrupt.
const maxPayload = 32 << 20

// Request message types.
const (
	MessageRunCommand    uint32 = 0
	MessageGetWorkspaces uint32 = 1
	MessageSubscribe     uint32 = 2
	MessageGetOutputs    uint32 = 3
	MessageGetTree       uint32 = 4
	MessageGetMarks      uint32 = 5
)

// Event frames carry the high bit in their type field.
const (
	eventFlag          uint32 = 0x80000000
	EventTypeWorkspace uint32 = eventFlag | 0
	EventTypeOutput    uint32 = eventFlag | 1
	EventTypeWindow    uint32 = eventFlag | 3
	EventTypeShutdown  uint32 = eventFlag | 6
)

// ErrProtocol flags a frame that violates the wire protocol. The connection
// cannot be trusted afterwards and must be re-established.
var ErrProtocol = errors.New("ipc protocol violation")

func writeMessage(w io.Writer, msgType uint32, payload []byte) error {
	buf := make([]byte, headerLen+len(payload))
	copy(buf, magic)
	binary.LittleEndian.PutUint32(buf[len(magic):], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[len(magic)+4:], msgType)
	copy(buf[headerLen:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func readMessage(r io.Reader) (uint32, []byte, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	if string(header[:len(magic)]) != magic {
		return 0, nil, fmt.Errorf("%w: bad magic %q", ErrProtocol, header[:len(magic)])
	}
	length := binary.LittleEndian.Uint32(header[len(magic):])
	msgType := binary.LittleEndian.Uint32(header[len(magic)+4:])
	if length > maxPayload {
		return 0, nil, fmt.Errorf("%w: payload length %d", ErrProtocol, length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read payload: %w", err)
	}
	return msgType, payload, nil
}
