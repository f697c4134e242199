package window

import (
	"sync"
	"sync/atomic"

	"github.com/cruciblehq/appdrawer/internal/events"
	"github.com/cruciblehq/appdrawer/internal/protocol"
	"github.com/cruciblehq/appdrawer/internal/shm"
)

// A client window.
type Window struct {
	id        uint32
	title     string
	width     uint32
	height    uint32
	buffer    *shm.Buffer
	eventPath string
	queue     *events.Queue

	mu sync.Mutex // Guards x and y.
	x  float32
	y  float32

	polling atomic.Bool
	active  atomic.Bool

	worker *events.Worker // Guarded by the registry lock.
}

func (w *Window) ID() uint32     { return w.id }
func (w *Window) Title() string  { return w.title }
func (w *Window) Width() uint32  { return w.width }
func (w *Window) Height() uint32 { return w.height }
func (w *Window) Polling() bool  { return w.polling.Load() }
func (w *Window) Active() bool   { return w.active.Load() }

// Path of the event socket used while polling.
func (w *Window) EventPath() string {
	return w.eventPath
}

// Shared-memory name of the pixel buffer.
func (w *Window) BufferName() string {
	return w.buffer.Name()
}

// Mapped pixel bytes, for the compositor to read. Nil once the window has
// been removed.
func (w *Window) Pixels() []byte {
	return w.buffer.Data()
}

// Number of events waiting for delivery.
func (w *Window) Pending() int {
	return w.queue.Len()
}

// Top-left corner in screen coordinates.
func (w *Window) Position() (x, y float32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.x, w.y
}

// Moves the window by (dx, dy).
func (w *Window) Move(dx, dy float32) {
	w.mu.Lock()
	w.x += dx
	w.y += dy
	w.mu.Unlock()
}

// Places the top-left corner at (x, y).
func (w *Window) SetPosition(x, y float32) {
	w.mu.Lock()
	w.x, w.y = x, y
	w.mu.Unlock()
}

// Translates a screen-space pointer position into window coordinates.
// Positions outside the window, edges included as inside, yield (0,0).
func (w *Window) Relative(p protocol.Point) protocol.Point {
	x, y := w.Position()
	rx := float32(p.X) - x
	ry := float32(p.Y) - y
	if rx < 0 || rx > float32(w.width) || ry < 0 || ry > float32(w.height) {
		return protocol.Point{}
	}
	return protocol.Point{X: int32(rx), Y: int32(ry)}
}

// Queues ev for delivery if the window is polling. Reports whether the
// event was queued.
func (w *Window) Enqueue(ev protocol.Event) bool {
	return w.queue.PushIf(ev, w.polling.Load)
}
