package window

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/cruciblehq/appdrawer/internal/events"
	"github.com/cruciblehq/appdrawer/internal/metrics"
	"github.com/cruciblehq/appdrawer/internal/paths"
	"github.com/cruciblehq/appdrawer/internal/protocol"
	"github.com/cruciblehq/appdrawer/internal/shm"
)

const (
	DefaultScreenWidth  = 640
	DefaultScreenHeight = 480
)

// Registry configuration.
type Options struct {
	Buffers      *shm.Manager     // Buffer manager, /dev/shm when nil.
	Naming       paths.Naming     // Event socket and buffer names.
	Screen       protocol.Vec2    // Screen size used to centre new windows.
	ReadyTimeout time.Duration    // Bound on event socket readiness.
	Metrics      *metrics.Metrics // Optional.
}

// Ordered, lock-guarded collection of live windows.
type Registry struct {
	mu      sync.RWMutex
	windows []*Window
	nextID  uint32
	opts    Options
}

// Creates an empty registry. Window ids start at 1.
func NewRegistry(opts Options) *Registry {
	if opts.Buffers == nil {
		opts.Buffers = shm.NewManager("")
	}
	if opts.Naming == (paths.Naming{}) {
		opts.Naming = paths.DefaultNaming()
	}
	if opts.Screen.X == 0 || opts.Screen.Y == 0 {
		opts.Screen = protocol.Vec2{X: DefaultScreenWidth, Y: DefaultScreenHeight}
	}
	return &Registry{
		nextID: 1,
		opts:   opts,
	}
}

// Creates a window and its pixel buffer, centres it on the screen and makes
// it the active window.
//
// The id is consumed even when buffer creation fails, so ids are never
// reused within a process.
func (r *Registry) Add(title string, width, height uint32) (*Window, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	buf, err := r.opts.Buffers.Create(r.opts.Naming.BufferName(id), width, height)
	if err != nil {
		return nil, err
	}

	w := &Window{
		id:        id,
		title:     title,
		width:     width,
		height:    height,
		buffer:    buf,
		eventPath: r.opts.Naming.EventSocket(id),
		queue:     events.NewQueue(),
		x:         float32(r.opts.Screen.X)/2 - float32(width)/2,
		y:         float32(r.opts.Screen.Y)/2 - float32(height)/2,
	}

	r.windows = append(r.windows, w)
	r.activate(w)
	r.opts.Metrics.SetWindows(len(r.windows))

	slog.Info("window added", "id", id, "title", title, "width", width, "height", height)

	return w, nil
}

// Stops polling (joining the delivery worker), destroys the pixel buffer,
// erases the window and, if it was active, promotes the new tail.
//
// Buffer teardown failures are logged and do not abort the removal.
func (r *Registry) Remove(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "id %d", id)
	}
	w := r.windows[i]

	r.stopPolling(w)
	r.opts.Buffers.Destroy(w.buffer)

	r.windows = slices.Delete(r.windows, i, i+1)
	if w.active.Swap(false) && len(r.windows) > 0 {
		r.activate(r.windows[len(r.windows)-1])
	}
	r.opts.Metrics.SetWindows(len(r.windows))

	slog.Info("window removed", "id", id)

	return nil
}

// Returns the window with the given id.
func (r *Registry) Find(id uint32) (*Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	return r.windows[i], nil
}

// Starts or stops event delivery for a window.
func (r *Registry) SetPolling(id uint32, on bool) error {
	if on {
		_, err := r.StartPolling(id)
		return err
	}
	return r.StopPolling(id)
}

// Enables polling and starts a delivery worker on the window's event
// socket, waiting for the socket to be ready. A worker that is already
// running is stopped and joined first.
//
// The returned worker identifies this polling session for
// [Registry.StopPollingIf]. On failure polling is left disabled and the error
// wraps [events.ErrNotReady] or [events.ErrListen].
func (r *Registry) StartPolling(id uint32) (*events.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, errors.Wrapf(ErrNotFound, "id %d", id)
	}
	w := r.windows[i]

	if w.worker != nil {
		r.stopPolling(w)
	}
	w.queue.Reset()
	w.polling.Store(true)

	m := r.opts.Metrics
	m.PollerStarted()

	worker, err := events.Start(events.Config{
		Path:         w.eventPath,
		Queue:        w.queue,
		ReadyTimeout: r.opts.ReadyTimeout,
		OnExit: func(lost bool) {
			m.PollerStopped()
			if lost {
				w.polling.Store(false)
				m.Dropped(w.queue.Reset())
				slog.Info("event consumer lost", "id", w.id)
			}
		},
		OnDeliver: func(protocol.Event) { m.Delivered() },
	})
	if err != nil {
		w.polling.Store(false)
		return nil, err
	}
	w.worker = worker

	slog.Info("polling started", "id", id, "socket", w.eventPath)

	return worker, nil
}

// Disables polling, stops and joins the delivery worker and discards any
// undelivered events. Succeeds for a window that is not polling.
func (r *Registry) StopPolling(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "id %d", id)
	}
	r.stopPolling(r.windows[i])

	slog.Info("polling stopped", "id", id)

	return nil
}

// Like [Registry.StopPolling], but only if worker is still the window's
// current delivery worker. Reports whether polling was stopped. A window that
// is gone or has since been restarted by someone else is left alone.
func (r *Registry) StopPollingIf(id uint32, worker *events.Worker) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 || worker == nil || r.windows[i].worker != worker {
		return false
	}
	r.stopPolling(r.windows[i])

	slog.Info("polling stopped", "id", id)

	return true
}

// Moves the window to the top of the stacking order and makes it the only
// active window.
func (r *Registry) ChangeActive(id uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "id %d", id)
	}
	w := r.windows[i]

	r.windows = append(slices.Delete(r.windows, i, i+1), w)
	r.activate(w)

	slog.Debug("active window changed", "id", id)

	return nil
}

// Returns the active window, if any.
func (r *Registry) Active() (*Window, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, w := range r.windows {
		if w.active.Load() {
			return w, true
		}
	}
	return nil, false
}

// Queues ev for the window if it is polling. Events for windows that are
// not polling are dropped.
func (r *Registry) Enqueue(id uint32, ev protocol.Event) error {
	w, err := r.Find(id)
	if err != nil {
		return err
	}

	if !w.Enqueue(ev) {
		r.opts.Metrics.Dropped(1)
		slog.Debug("event dropped, window not polling", "id", id, "kind", ev.Kind)
		return nil
	}

	r.opts.Metrics.Enqueued(ev.Kind.String())
	if !ev.Kind.Frequent() {
		slog.Debug("event queued", "id", id, "kind", ev.Kind)
	}

	return nil
}

// Moves a window by (dx, dy).
func (r *Registry) Move(id uint32, dx, dy float32) error {
	w, err := r.Find(id)
	if err != nil {
		return err
	}
	w.Move(dx, dy)
	return nil
}

// Returns the shared-memory name of a window's buffer.
func (r *Registry) BufferName(id uint32) (string, error) {
	w, err := r.Find(id)
	if err != nil {
		return "", err
	}
	return w.BufferName(), nil
}

// Number of windows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// Point-in-time view of one window.
type Info struct {
	ID         uint32  `json:"id"`
	Title      string  `json:"title"`
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	Width      uint32  `json:"width"`
	Height     uint32  `json:"height"`
	Active     bool    `json:"active"`
	Polling    bool    `json:"polling"`
	Pending    int     `json:"pending"`
	BufferName string  `json:"buffer_name"`
}

// Returns every window in stacking order, bottom first.
func (r *Registry) Snapshot() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.windows))
	for _, w := range r.windows {
		x, y := w.Position()
		infos = append(infos, Info{
			ID:         w.id,
			Title:      w.title,
			X:          x,
			Y:          y,
			Width:      w.width,
			Height:     w.height,
			Active:     w.active.Load(),
			Polling:    w.polling.Load(),
			Pending:    w.queue.Len(),
			BufferName: w.buffer.Name(),
		})
	}
	return infos
}

// Removes every window, newest first.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.windows) - 1; i >= 0; i-- {
		w := r.windows[i]
		r.stopPolling(w)
		r.opts.Buffers.Destroy(w.buffer)
		slog.Debug("window removed", "id", w.id)
	}
	r.windows = nil
	r.opts.Metrics.SetWindows(0)
}

// Returns the index of the window with the given id, or -1. Callers hold
// r.mu.
func (r *Registry) indexOf(id uint32) int {
	return slices.IndexFunc(r.windows, func(w *Window) bool {
		return w.id == id
	})
}

// Makes w the only active window. Callers hold r.mu for writing.
func (r *Registry) activate(w *Window) {
	for _, other := range r.windows {
		other.active.Store(other == w)
	}
}

// Callers hold r.mu for writing.
func (r *Registry) stopPolling(w *Window) {
	w.polling.Store(false)
	if w.worker != nil {
		w.worker.Stop()
		w.worker = nil
	}
	r.opts.Metrics.Dropped(w.queue.Reset())
}
