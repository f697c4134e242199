package server

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/cruciblehq/appdrawer/internal/metrics"
	"github.com/cruciblehq/appdrawer/internal/paths"
	"github.com/cruciblehq/appdrawer/internal/protocol"
	"github.com/cruciblehq/appdrawer/internal/shm"
	"github.com/cruciblehq/appdrawer/internal/unixsock"
	"github.com/cruciblehq/appdrawer/internal/window"
)

const (

	// Default listen backlog of the command socket.
	DefaultBacklog = 20

	// Bounds of the pause between failed accepts.
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second

	// Group name used to grant socket access. Members of this group can
	// connect to the server socket without owning the process.
	socketGroup = "appdrawer"

	// File mode applied to the Unix socket. Owner and group get read-write
	// (required for connect); others get no access.
	socketMode = 0660
)

// Holds server configuration.
type Config struct {
	SocketPath       string           // Override for the command socket path. Empty uses the default.
	Backlog          int              // Command socket listen backlog. Zero uses [DefaultBacklog].
	PIDFile          string           // PID file path. Empty uses the default; "-" disables it.
	Naming           paths.Naming     // Event socket and buffer naming. Zero uses [paths.DefaultNaming].
	BufferDir        string           // Shared-memory directory. Empty uses /dev/shm.
	Screen           protocol.Vec2    // Screen size used to centre new windows.
	ReadyTimeout     time.Duration    // Bound on event socket readiness for START_POLLING.
	ReapOnDisconnect bool             // Remove windows created by a connection when it closes.
	Metrics          *metrics.Metrics // Optional collectors.
}

// Listens on a Unix domain socket and dispatches commands.
type Server struct {
	socketPath string            // Path to the Unix socket file.
	pidFile    string            // Path to the PID file, empty when disabled.
	backlog    int               // Listen backlog.
	reap       bool              // Remove owned windows on disconnect.
	registry   *window.Registry  // Live windows.
	pointer    *window.Pointer   // Last known pointer position.
	metrics    *metrics.Metrics  // Optional collectors.
	listener   net.Listener      // Listener for incoming connections.
	startedAt  time.Time         // Timestamp when the server started.
	conns      map[net.Conn]bool // Open command connections.
	wg         sync.WaitGroup    // Running dispatchers.
	done       chan struct{}     // Channel to signal server shutdown.
	stopOnce   sync.Once         // Guards Stop.
	mu         sync.Mutex        // Mutex to protect shared state.
}

// Creates a new server instance.
//
// The socket is not opened until [Server.Start] is called.
func New(cfg Config) (*Server, error) {
	if cfg.Backlog < 0 {
		return nil, errors.Wrapf(ErrServer, "invalid backlog %d", cfg.Backlog)
	}

	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = paths.Socket()
	}

	backlog := cfg.Backlog
	if backlog == 0 {
		backlog = DefaultBacklog
	}

	pidFile := cfg.PIDFile
	switch pidFile {
	case "":
		pidFile = paths.PIDFile()
	case "-":
		pidFile = ""
	}

	naming := cfg.Naming
	if naming == (paths.Naming{}) {
		naming = paths.DefaultNaming()
	}

	registry := window.NewRegistry(window.Options{
		Buffers:      shm.NewManager(cfg.BufferDir),
		Naming:       naming,
		Screen:       cfg.Screen,
		ReadyTimeout: cfg.ReadyTimeout,
		Metrics:      cfg.Metrics,
	})

	return &Server{
		socketPath: socketPath,
		pidFile:    pidFile,
		backlog:    backlog,
		reap:       cfg.ReapOnDisconnect,
		registry:   registry,
		pointer:    &window.Pointer{},
		metrics:    cfg.Metrics,
		conns:      make(map[net.Conn]bool),
		done:       make(chan struct{}),
	}, nil
}

// Opens the Unix socket and begins accepting connections.
//
// Failing to bind or listen is returned as an error; the server never runs
// without a command socket.
func (s *Server) Start() error {
	listener, err := unixsock.Listen(s.socketPath, s.backlog)
	if err != nil {
		return errors.Wrapf(ErrServer, "failed to listen on %s: %v", s.socketPath, err)
	}

	if err := setSocketPermissions(s.socketPath); err != nil {
		listener.Close()
		return err
	}

	s.listener = listener
	s.startedAt = time.Now()

	if s.pidFile != "" {
		if err := writePID(s.pidFile); err != nil {
			slog.Warn("failed to write PID file", "error", err)
		}
	}

	slog.Info("server listening on socket", "path", s.socketPath, "backlog", s.backlog)

	go s.accept()
	return nil
}

// Restricts socket access to owner and group. Any user in the appdrawer
// group can also connect.
func setSocketPermissions(socketPath string) error {
	if err := os.Chmod(socketPath, socketMode); err != nil {
		return errors.Wrapf(ErrServer, "failed to chmod socket %s: %v", socketPath, err)
	}

	if g, err := user.LookupGroup(socketGroup); err == nil {
		if gid, err := strconv.Atoi(g.Gid); err == nil {
			if err := os.Chown(socketPath, -1, gid); err != nil {
				slog.Warn("failed to chgrp socket", "group", socketGroup, "error", err)
			}
		}
	} else {
		slog.Debug("socket group not found, socket accessible to owner only", "group", socketGroup)
	}

	return nil
}

// Shuts down the server and cleans up resources.
//
// Closes the listener and every command connection, waits for their
// dispatchers to return, then removes every window. Safe to call more than
// once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)

		if s.listener != nil {
			s.listener.Close()
		}

		s.mu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()

		s.wg.Wait()
		s.registry.Close()

		os.Remove(s.socketPath)
		if s.pidFile != "" {
			os.Remove(s.pidFile)
		}

		slog.Info("server stopped", "uptime", time.Since(s.startedAt).Truncate(time.Second))
	})
	return nil
}

// Blocks until the server stops.
func (s *Server) Wait() {
	<-s.done
}

// Closed when the server begins shutting down.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Path of the command socket.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Window registry, for the compositor and the admin endpoint.
func (s *Server) Registry() *window.Registry {
	return s.registry
}

// Pointer tracker updated by the compositor.
func (s *Server) Pointer() *window.Pointer {
	return s.pointer
}

// Accepts connections in a loop until the server shuts down.
//
// Failed accepts are retried after a growing delay.
func (s *Server) accept() {
	var delay time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}

			delay = nextAcceptDelay(delay)
			slog.Error("accept error", "error", err, "retry", delay)

			select {
			case <-s.done:
				return
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		if !s.track(conn) {
			conn.Close()
			return
		}

		go s.handle(conn)
	}
}

// Returns the pause after a failed accept that followed a pause of d:
// [minAcceptDelay] first, then doubling up to [maxAcceptDelay].
func nextAcceptDelay(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptDelay
	}
	return min(2*d, maxAcceptDelay)
}

// Registers a connection so Stop can close it. Returns false once the
// server is stopping.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return false
	default:
	}

	s.conns[conn] = true
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

// Writes the server PID to the PID file so the CLI can detect whether the
// server is already running.
func writePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), paths.DefaultDirMode); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", os.Getpid())), paths.DefaultFileMode)
}
