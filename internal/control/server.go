package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/scratchd/scratchd/internal/engine"
	"github.com/scratchd/scratchd/internal/util"
)

// Server hosts the scratchd control socket and serves requests.
type Server struct {
	engine     *engine.Engine
	logger     *util.Logger
	reload     func(reason string) error
	socketPath string

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new control server. An empty path selects the default
// runtime socket location.
func NewServer(eng *engine.Engine, logger *util.Logger, reload func(reason string) error, path string) (*Server, error) {
	if path == "" {
		var err error
		path, err = DefaultSocketPath()
		if err != nil {
			return nil, err
		}
	}
	return &Server{
		engine:     eng,
		logger:     logger,
		reload:     reload,
		socketPath: path,
	}, nil
}

// SocketPath returns the socket the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Serve listens on the control socket until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.prepareSocket(); err != nil {
		return err
	}
	s.logger.Infof("control server listening on %s", s.socketPath)
	defer s.cleanup()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()
	}()

	for {
		conn, err := s.accept(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Errorf("control accept error: %v", err)
			continue
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) accept(ctx context.Context) (net.Conn, error) {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return nil, context.Canceled
	}
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return conn, nil
}

func (s *Server) prepareSocket() error {
	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create control dir: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on control socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("chmod control socket: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

func (s *Server) cleanup() {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()
	if listener != nil {
		listener.Close()
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warnf("remove control socket: %v", err)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	var req Request
	if err := dec.Decode(&req); err != nil {
		s.writeError(conn, fmt.Errorf("decode request: %w", err))
		return
	}
	switch req.Action {
	case ActionProjectGet:
		s.handleProjectGet(conn)
	case ActionProjectSet:
		s.handleProjectSet(ctx, conn, req.Params)
	case ActionReconcile:
		s.handleReconcile(ctx, conn, req.Params)
	case ActionSummon:
		s.handleSummon(ctx, conn, req.Params)
	case ActionStateSave:
		s.handleStateSave(ctx, conn, req.Params)
	case ActionStateRestore:
		s.handleStateRestore(ctx, conn, req.Params)
	case ActionRecover:
		s.handleRecover(ctx, conn)
	case ActionStatus:
		s.handleStatus(conn)
	case ActionWindows:
		s.handleWindows(ctx, conn)
	case ActionDump:
		s.handleDump(ctx, conn)
	case ActionReload:
		s.handleReload(conn)
	default:
		s.writeError(conn, fmt.Errorf("unknown action %q", req.Action))
	}
}

func (s *Server) handleProjectGet(conn net.Conn) {
	s.writeOK(conn, ProjectStatus{
		Active:   s.engine.ActiveProject(),
		Projects: s.engine.Projects(),
	})
}

func (s *Server) handleProjectSet(ctx context.Context, conn net.Conn, params map[string]any) {
	name, _ := params["name"].(string)
	if name == "" {
		s.writeError(conn, errors.New("missing project name"))
		return
	}
	result, err := s.engine.SetProject(ctx, name)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, result)
}

func (s *Server) handleReconcile(ctx context.Context, conn net.Conn, params map[string]any) {
	if preview, _ := params["preview"].(bool); preview {
		plan, err := s.engine.PreviewReconcile(ctx)
		if err != nil {
			s.writeError(conn, err)
			return
		}
		s.writeOK(conn, plan)
		return
	}
	result, err := s.engine.Reconcile(ctx)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, result)
}

func (s *Server) handleSummon(ctx context.Context, conn net.Conn, params map[string]any) {
	criteria, _ := params["criteria"].(string)
	if criteria == "" {
		s.writeError(conn, errors.New("missing summon criteria"))
		return
	}
	result, err := s.engine.Summon(ctx, criteria)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, result)
}

func (s *Server) handleStateSave(ctx context.Context, conn net.Conn, params map[string]any) {
	conID, err := conIDParam(params)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	encoded, err := s.engine.SaveState(ctx, conID)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, SavedMark{ConID: conID, Mark: encoded})
}

func (s *Server) handleStateRestore(ctx context.Context, conn net.Conn, params map[string]any) {
	conID, err := conIDParam(params)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	st, err := s.engine.RestoreState(ctx, conID)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, RestoredState{
		ConID:     conID,
		Floating:  st.Floating,
		X:         st.X,
		Y:         st.Y,
		Width:     st.Width,
		Height:    st.Height,
		SavedAt:   st.SavedAt,
		Workspace: st.Workspace,
		Monitor:   st.Monitor,
	})
}

func (s *Server) handleRecover(ctx context.Context, conn net.Conn) {
	if err := s.engine.Recover(ctx, "control request"); err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, nil)
}

func (s *Server) handleStatus(conn net.Conn) {
	s.writeOK(conn, s.engine.Status())
}

func (s *Server) handleWindows(ctx context.Context, conn net.Conn) {
	reports, err := s.engine.Windows(ctx)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, reports)
}

func (s *Server) handleDump(ctx context.Context, conn net.Conn) {
	dump, err := s.engine.Dump(ctx)
	if err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, dump)
}

func (s *Server) handleReload(conn net.Conn) {
	if s.reload == nil {
		s.writeError(conn, errors.New("reload not supported"))
		return
	}
	if err := s.reload("control request"); err != nil {
		s.writeError(conn, err)
		return
	}
	s.writeOK(conn, nil)
}

// conIDParam accepts the container id as a JSON number or a decimal string.
func conIDParam(params map[string]any) (int64, error) {
	switch v := params["con_id"].(type) {
	case float64:
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid con_id %q", v)
		}
		return id, nil
	default:
		return 0, errors.New("missing con_id")
	}
}

func (s *Server) writeOK(conn net.Conn, data any) {
	resp := Response{Status: StatusOK}
	if data != nil {
		resp.Data = data
	}
	_ = json.NewEncoder(conn).Encode(resp)
}

func (s *Server) writeError(conn net.Conn, err error) {
	resp := Response{Status: StatusError}
	if err != nil {
		resp.Error = err.Error()
	}
	_ = json.NewEncoder(conn).Encode(resp)
}
