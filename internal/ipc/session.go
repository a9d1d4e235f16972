package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/scratchd/scratchd/internal/layout"
	"github.com/scratchd/scratchd/internal/state"
	"github.com/scratchd/scratchd/internal/util"
)

// ErrReconnecting fails writes fast while the link is down instead of
// blocking callers behind the backoff schedule.
var ErrReconnecting = errors.New("ipc link down, reconnecting")

// HandshakeError wraps the initial connection failure. The daemon treats it
// as fatal; there is no window manager to reconnect to.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("ipc handshake: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// Backoff produces the reconnect delay schedule: Initial grows by Factor per
// failed attempt up to Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64

	current time.Duration
}

// Next returns the delay before the next attempt and advances the schedule.
func (b *Backoff) Next() time.Duration {
	if b.current == 0 {
		if b.Initial <= 0 {
			b.Initial = 500 * time.Millisecond
		}
		b.current = b.Initial
	}
	d := b.current
	if b.Factor > 1 {
		next := time.Duration(float64(b.current) * b.Factor)
		if b.Max > 0 && next > b.Max {
			next = b.Max
		}
		b.current = next
	}
	return d
}

// Reset restarts the schedule after a successful connection.
func (b *Backoff) Reset() {
	b.current = 0
}

// Session maintains the window manager link across restarts. It owns the
// command client and the event connection, reconnects with backoff after a
// loss, and brackets each connection's events with synthesized
// connected/disconnected entries so the consumer re-snapshots before acting
// on anything newer.
type Session struct {
	path    string
	timeout time.Duration
	backoff Backoff
	logger  *util.Logger

	mu        sync.Mutex
	client    *Client
	eventConn net.Conn
}

// NewSession prepares a session for the socket at path. Nothing is dialed
// until Run.
func NewSession(path string, timeout time.Duration, backoff Backoff, logger *util.Logger) *Session {
	return &Session{path: path, timeout: timeout, backoff: backoff, logger: logger}
}

// Run performs the initial connect and returns the event feed. An initial
// connection failure is returned as a HandshakeError; afterwards the session
// reconnects on its own until ctx ends, and the feed closes only when ctx
// does.
func (s *Session) Run(ctx context.Context) (<-chan Event, error) {
	client, eventConn, err := s.connect()
	if err != nil {
		return nil, &HandshakeError{Err: err}
	}
	s.install(client, eventConn)
	events := make(chan Event)
	go s.loop(ctx, events)
	return events, nil
}

func (s *Session) connect() (*Client, net.Conn, error) {
	client, err := DialPath(s.path, s.timeout, s.logger)
	if err != nil {
		return nil, nil, err
	}
	eventConn, err := subscribe(s.path)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return client, eventConn, nil
}

func (s *Session) install(client *Client, eventConn net.Conn) {
	s.mu.Lock()
	s.client = client
	s.eventConn = eventConn
	s.mu.Unlock()
}

func (s *Session) currentClient() *Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// teardown closes both connections and leaves the session in the fail-fast
// state. Safe to call from any goroutine and more than once.
func (s *Session) teardown() {
	s.mu.Lock()
	client := s.client
	eventConn := s.eventConn
	s.client = nil
	s.eventConn = nil
	s.mu.Unlock()
	if client != nil {
		client.Close()
	}
	if eventConn != nil {
		eventConn.Close()
	}
}

func (s *Session) loop(ctx context.Context, events chan<- Event) {
	defer close(events)
	defer s.teardown()
	for {
		s.mu.Lock()
		eventConn := s.eventConn
		s.mu.Unlock()

		if !emit(ctx, events, Event{Kind: EventConnected}) {
			return
		}
		s.backoff.Reset()

		stop := context.AfterFunc(ctx, s.teardown)
		s.pump(ctx, eventConn, events)
		stop()
		s.teardown()

		if ctx.Err() != nil {
			return
		}
		if !emit(ctx, events, Event{Kind: EventDisconnected}) {
			return
		}
		if !s.reconnect(ctx) {
			return
		}
	}
}

// pump forwards frames from the event connection until it fails.
func (s *Session) pump(ctx context.Context, conn net.Conn, events chan<- Event) {
	for {
		msgType, payload, err := readMessage(conn)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Warnf("event stream error: %v", err)
			}
			return
		}
		ev, ok := parseEvent(msgType, payload, s.logger)
		if !ok {
			continue
		}
		if !emit(ctx, events, ev) {
			return
		}
	}
}

func (s *Session) reconnect(ctx context.Context) bool {
	for {
		delay := s.backoff.Next()
		s.logger.Infof("ipc link lost, retrying in %s", delay)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
		client, eventConn, err := s.connect()
		if err != nil {
			s.logger.Warnf("reconnect failed: %v", err)
			continue
		}
		s.install(client, eventConn)
		return true
	}
}

func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// noteError tears the link down when a command failure implicates the
// connection itself, so the loop reconnects instead of reusing a wedged
// socket.
func (s *Session) noteError(err error) {
	if err == nil || !shouldReconnect(err) {
		return
	}
	s.logger.Warnf("command channel failed, forcing reconnect: %v", err)
	s.teardown()
}

func shouldReconnect(err error) bool {
	if errors.Is(err, ErrProtocol) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}

// RunCommand proxies to the live client, failing fast while reconnecting.
func (s *Session) RunCommand(ctx context.Context, command string) error {
	client := s.currentClient()
	if client == nil {
		return ErrReconnecting
	}
	err := client.RunCommand(ctx, command)
	s.noteError(err)
	return err
}

// GetTree proxies to the live client, failing fast while reconnecting.
func (s *Session) GetTree(ctx context.Context) (*state.Node, error) {
	client := s.currentClient()
	if client == nil {
		return nil, ErrReconnecting
	}
	tree, err := client.GetTree(ctx)
	s.noteError(err)
	return tree, err
}

// GetWorkspaces proxies to the live client, failing fast while reconnecting.
func (s *Session) GetWorkspaces(ctx context.Context) ([]state.Workspace, error) {
	client := s.currentClient()
	if client == nil {
		return nil, ErrReconnecting
	}
	workspaces, err := client.GetWorkspaces(ctx)
	s.noteError(err)
	return workspaces, err
}

// GetOutputs proxies to the live client, failing fast while reconnecting.
func (s *Session) GetOutputs(ctx context.Context) ([]state.Output, error) {
	client := s.currentClient()
	if client == nil {
		return nil, ErrReconnecting
	}
	outputs, err := client.GetOutputs(ctx)
	s.noteError(err)
	return outputs, err
}

// GetMarks proxies to the live client, failing fast while reconnecting.
func (s *Session) GetMarks(ctx context.Context) ([]string, error) {
	client := s.currentClient()
	if client == nil {
		return nil, ErrReconnecting
	}
	marks, err := client.GetMarks(ctx)
	s.noteError(err)
	return marks, err
}

var _ state.DataSource = (*Session)(nil)
var _ layout.CommandRunner = (*Session)(nil)
