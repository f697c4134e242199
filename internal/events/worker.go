package events

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/cruciblehq/appdrawer/internal/protocol"
	"github.com/cruciblehq/appdrawer/internal/unixsock"
)

const (

	// Bound on socket readiness when Config.ReadyTimeout is zero.
	DefaultReadyTimeout = 2 * time.Second

	// One consumer per window.
	defaultBacklog = 1
)

// Configuration for a delivery [Worker].
type Config struct {
	Path         string        // Event socket path.
	Queue        *Queue        // Source of events.
	ReadyTimeout time.Duration // Bound on listen readiness.
	Backlog      int           // Listen backlog, 1 when zero.

	// Called exactly once from the worker goroutine before [Worker.Done]
	// closes, on every exit path including a failed listen. lost is true
	// when a consumer connection ended without Stop being called. It must
	// not call Stop.
	OnExit func(lost bool)

	// Called after each event is written to the consumer.
	OnDeliver func(protocol.Event)
}

// Streams events from a [Queue] to the consumer of one event socket.
type Worker struct {
	cfg     Config
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
}

// Starts a worker and waits, at most cfg.ReadyTimeout, for its socket to
// accept connections.
//
// Returns [ErrListen] if the socket could not be created and [ErrNotReady]
// if readiness was not signalled in time. In both cases the worker has
// fully exited when Start returns.
func Start(cfg Config) (*Worker, error) {
	if cfg.Queue == nil {
		cfg.Queue = NewQueue()
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = defaultBacklog
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	w.running.Store(true)

	ready := make(chan error, 1)
	go w.run(ready)

	timer := time.NewTimer(cfg.ReadyTimeout)
	defer timer.Stop()

	select {
	case err := <-ready:
		if err != nil {
			<-w.done
			return nil, errors.Wrap(ErrListen, err.Error())
		}
		return w, nil
	case <-timer.C:
		w.Stop()
		return nil, errors.Wrapf(ErrNotReady, "%s after %s", cfg.Path, cfg.ReadyTimeout)
	}
}

// Path of the event socket.
func (w *Worker) Path() string {
	return w.cfg.Path
}

// Reports whether the worker goroutine is still alive.
func (w *Worker) Running() bool {
	return w.running.Load()
}

// Closed once the worker has exited and released its sockets.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Signals the worker to stop and waits for it to exit. Safe to call more
// than once and after the worker has already exited on its own.
func (w *Worker) Stop() {
	w.cancel()
	<-w.done
}

func (w *Worker) run(ready chan<- error) {
	lost := false
	defer func() {
		w.cancel()
		if w.cfg.OnExit != nil {
			w.cfg.OnExit(lost)
		}
		w.running.Store(false)
		close(w.done)
	}()

	ln, err := unixsock.Listen(w.cfg.Path, w.cfg.Backlog)
	if err != nil {
		ready <- err
		return
	}
	defer ln.Close()

	ready <- nil
	slog.Debug("event socket listening", "path", w.cfg.Path)

	lost = w.serve(ln)
}

// Accepts one consumer and streams events to it. Returns true when the
// stream ended without Stop being called.
func (w *Worker) serve(ln *net.UnixListener) bool {
	stopListener := context.AfterFunc(w.ctx, func() { ln.Close() })
	defer stopListener()

	conn, err := ln.Accept()
	if err != nil {
		if w.ctx.Err() != nil {
			return false
		}
		slog.Warn("failed to accept event consumer", "path", w.cfg.Path, "error", err)
		return true
	}
	defer conn.Close()

	slog.Debug("event consumer connected", "path", w.cfg.Path)

	ctx, cancel := contextWithDisconnect(w.ctx, conn)
	defer cancel()

	stopConn := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopConn()

	for {
		ev, err := w.cfg.Queue.Pop(ctx)
		if err != nil {
			break
		}
		if err := protocol.WriteEvent(conn, ev); err != nil {
			if ctx.Err() == nil {
				slog.Debug("failed to write event", "path", w.cfg.Path, "error", err)
			}
			break
		}
		if w.cfg.OnDeliver != nil {
			w.cfg.OnDeliver(ev)
		}
	}

	if w.ctx.Err() != nil {
		return false
	}
	slog.Debug("event consumer disconnected", "path", w.cfg.Path)
	return true
}

// Returns a context that is canceled when r yields anything: data, EOF or
// an error. Consumers never write to the event socket, so any read result
// means the peer is gone.
func contextWithDisconnect(parent context.Context, r io.Reader) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		buf := make([]byte, 1)
		r.Read(buf)
		cancel()
	}()

	return ctx, cancel
}
