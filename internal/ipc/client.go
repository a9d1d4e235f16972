package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/scratchd/scratchd/internal/layout"
	"github.com/scratchd/scratchd/internal/state"
	"github.com/scratchd/scratchd/internal/util"
)

const defaultCommandTimeout = 2 * time.Second

// ErrClosed is returned for exchanges attempted on a closed client.
var ErrClosed = errors.New("ipc client closed")

// SocketPath resolves the window manager socket from the environment,
// preferring SWAYSOCK over I3SOCK.
func SocketPath() (string, error) {
	if path := os.Getenv("SWAYSOCK"); path != "" {
		return path, nil
	}
	if path := os.Getenv("I3SOCK"); path != "" {
		return path, nil
	}
	return "", errors.New("neither SWAYSOCK nor I3SOCK is set")
}

// Client is the command side of the IPC link: one request/response exchange
// at a time, serialized under a mutex. Events travel on a separate
// connection so a slow query can never stall the feed.
type Client struct {
	logger  *util.Logger
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
}

// DialPath connects the command channel to the socket at path.
func DialPath(path string, timeout time.Duration, logger *util.Logger) (*Client, error) {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect command socket: %w", err)
	}
	return &Client{conn: conn, timeout: timeout, logger: logger}, nil
}

// Dial connects using the socket advertised in the environment.
func Dial(timeout time.Duration, logger *util.Logger) (*Client, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	return DialPath(path, timeout, logger)
}

// Close shuts the command connection down. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// roundTrip performs one request/reply exchange. The per-command timeout and
// any earlier context deadline bound the whole exchange via the socket
// deadline.
func (c *Client) roundTrip(ctx context.Context, msgType uint32, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, ErrClosed
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	if err := writeMessage(c.conn, msgType, payload); err != nil {
		return nil, err
	}
	replyType, reply, err := readMessage(c.conn)
	if err != nil {
		return nil, err
	}
	if replyType != msgType {
		return nil, fmt.Errorf("%w: reply type %#x for request %#x", ErrProtocol, replyType, msgType)
	}
	return reply, nil
}

// CommandResult is one per-command verdict from a command reply.
type CommandResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RunCommand executes a window manager command. A false success in the reply
// is surfaced as an error; the connection itself stays healthy.
func (c *Client) RunCommand(ctx context.Context, command string) error {
	reply, err := c.roundTrip(ctx, MessageRunCommand, []byte(command))
	if err != nil {
		return err
	}
	var results []CommandResult
	if err := json.Unmarshal(reply, &results); err != nil {
		return fmt.Errorf("%w: command reply: %v", ErrProtocol, err)
	}
	for _, res := range results {
		if !res.Success {
			if res.Error != "" {
				return fmt.Errorf("command %q failed: %s", command, res.Error)
			}
			return fmt.Errorf("command %q failed", command)
		}
	}
	return nil
}

// GetTree fetches the full layout tree.
func (c *Client) GetTree(ctx context.Context) (*state.Node, error) {
	reply, err := c.roundTrip(ctx, MessageGetTree, nil)
	if err != nil {
		return nil, err
	}
	var root state.Node
	if err := json.Unmarshal(reply, &root); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return &root, nil
}

// GetWorkspaces fetches the workspace list.
func (c *Client) GetWorkspaces(ctx context.Context) ([]state.Workspace, error) {
	reply, err := c.roundTrip(ctx, MessageGetWorkspaces, nil)
	if err != nil {
		return nil, err
	}
	var workspaces []state.Workspace
	if err := json.Unmarshal(reply, &workspaces); err != nil {
		return nil, fmt.Errorf("decode workspaces: %w", err)
	}
	return workspaces, nil
}

// GetOutputs fetches the output list.
func (c *Client) GetOutputs(ctx context.Context) ([]state.Output, error) {
	reply, err := c.roundTrip(ctx, MessageGetOutputs, nil)
	if err != nil {
		return nil, err
	}
	var outputs []state.Output
	if err := json.Unmarshal(reply, &outputs); err != nil {
		return nil, fmt.Errorf("decode outputs: %w", err)
	}
	return outputs, nil
}

// GetMarks fetches every mark currently attached to any window.
func (c *Client) GetMarks(ctx context.Context) ([]string, error) {
	reply, err := c.roundTrip(ctx, MessageGetMarks, nil)
	if err != nil {
		return nil, err
	}
	var marks []string
	if err := json.Unmarshal(reply, &marks); err != nil {
		return nil, fmt.Errorf("decode marks: %w", err)
	}
	return marks, nil
}

var _ state.DataSource = (*Client)(nil)
var _ layout.CommandRunner = (*Client)(nil)
