package window

import (
	"errors"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cruciblehq/appdrawer/internal/paths"
	"github.com/cruciblehq/appdrawer/internal/protocol"
	"github.com/cruciblehq/appdrawer/internal/shm"
)

// Returns a registry whose buffers and sockets live in temporary
// directories. The socket directory is kept short for sun_path.
func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	sockDir, err := os.MkdirTemp("", "win")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(sockDir) })

	r := NewRegistry(Options{
		Buffers: shm.NewManager(t.TempDir()),
		Naming: paths.Naming{
			EventDir:     sockDir,
			EventPrefix:  "w",
			BufferPrefix: "buf",
		},
		ReadyTimeout: time.Second,
	})
	t.Cleanup(r.Close)
	return r
}

func mustAdd(t *testing.T, r *Registry, title string, w, h uint32) *Window {
	t.Helper()
	win, err := r.Add(title, w, h)
	if err != nil {
		t.Fatalf("Add(%q): %v", title, err)
	}
	return win
}

func activeIDs(r *Registry) []uint32 {
	var ids []uint32
	for _, info := range r.Snapshot() {
		if info.Active {
			ids = append(ids, info.ID)
		}
	}
	return ids
}

func TestAddRemoveScenario(t *testing.T) {
	r := newTestRegistry(t)

	a := mustAdd(t, r, "A", 200, 100)
	if a.ID() != 1 {
		t.Fatalf("first id = %d, want 1", a.ID())
	}
	if !a.Active() {
		t.Fatal("A not active after add")
	}

	b := mustAdd(t, r, "B", 50, 50)
	if b.ID() != 2 {
		t.Fatalf("second id = %d, want 2", b.ID())
	}
	if diff := cmp.Diff([]uint32{2}, activeIDs(r)); diff != "" {
		t.Fatalf("active ids (-want +got):\n%s", diff)
	}

	if err := r.Remove(2); err != nil {
		t.Fatalf("Remove(2): %v", err)
	}
	if diff := cmp.Diff([]uint32{1}, activeIDs(r)); diff != "" {
		t.Fatalf("active ids after remove (-want +got):\n%s", diff)
	}

	name, err := r.BufferName(1)
	if err != nil {
		t.Fatalf("BufferName(1): %v", err)
	}
	info, err := r.opts.Buffers.Stat(name)
	if err != nil {
		t.Fatalf("Stat(%s): %v", name, err)
	}
	if info.Size() != 80000 {
		t.Fatalf("buffer size = %d, want 80000", info.Size())
	}
}

func TestRemoveDestroysBuffer(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 200, 100)
	name := w.BufferName()

	if err := r.Remove(w.ID()); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := r.opts.Buffers.Stat(name); !os.IsNotExist(err) {
		t.Fatalf("Stat after Remove err = %v, want not-exist", err)
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", r.Len())
	}
}

func TestIDsNotReused(t *testing.T) {
	r := newTestRegistry(t)

	first := mustAdd(t, r, "A", 10, 10)
	if err := r.Remove(first.ID()); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	second := mustAdd(t, r, "B", 10, 10)

	if second.ID() <= first.ID() {
		t.Fatalf("id after remove = %d, want > %d", second.ID(), first.ID())
	}
}

func TestAddFailureConsumesID(t *testing.T) {
	r := newTestRegistry(t)

	if _, err := r.Add("zero", 0, 10); !errors.Is(err, shm.ErrBuffer) {
		t.Fatalf("Add(0x10) err = %v, want shm.ErrBuffer", err)
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d after failed add, want 0", r.Len())
	}

	w := mustAdd(t, r, "A", 10, 10)
	if w.ID() != 2 {
		t.Fatalf("id after failed add = %d, want 2", w.ID())
	}
}

func TestUnknownID(t *testing.T) {
	r := newTestRegistry(t)

	_, startErr := r.StartPolling(7)
	checks := map[string]error{
		"Remove":       r.Remove(7),
		"StartPolling": startErr,
		"StopPolling":  r.StopPolling(7),
		"ChangeActive": r.ChangeActive(7),
		"Enqueue":      r.Enqueue(7, protocol.Event{Kind: protocol.EventPaint}),
		"Move":         r.Move(7, 1, 1),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s err = %v, want ErrNotFound", name, err)
		}
	}
	if _, err := r.Find(7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find err = %v, want ErrNotFound", err)
	}
	if _, err := r.BufferName(7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("BufferName err = %v, want ErrNotFound", err)
	}
}

func TestExactlyOneActive(t *testing.T) {
	r := newTestRegistry(t)

	for _, title := range []string{"A", "B", "C", "D"} {
		mustAdd(t, r, title, 10, 10)
	}

	steps := []func() error{
		func() error { return r.ChangeActive(2) },
		func() error { return r.Remove(3) },
		func() error { return r.Remove(2) },
		func() error { return r.ChangeActive(1) },
		func() error { return r.Remove(4) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if n := len(activeIDs(r)); n != 1 {
			t.Fatalf("step %d: %d active windows, want 1", i, n)
		}
	}

	w, ok := r.Active()
	if !ok || w.ID() != 1 {
		t.Fatalf("Active() = %v, %v, want window 1", w, ok)
	}
}

func TestRemoveActivePromotesTail(t *testing.T) {
	r := newTestRegistry(t)
	mustAdd(t, r, "A", 10, 10)
	mustAdd(t, r, "B", 10, 10)
	mustAdd(t, r, "C", 10, 10)

	if err := r.Remove(3); err != nil {
		t.Fatalf("Remove(3): %v", err)
	}
	if diff := cmp.Diff([]uint32{2}, activeIDs(r)); diff != "" {
		t.Fatalf("active ids (-want +got):\n%s", diff)
	}

	// Removing an inactive window leaves the active one alone.
	if err := r.Remove(1); err != nil {
		t.Fatalf("Remove(1): %v", err)
	}
	if diff := cmp.Diff([]uint32{2}, activeIDs(r)); diff != "" {
		t.Fatalf("active ids (-want +got):\n%s", diff)
	}
}

func TestChangeActiveReorders(t *testing.T) {
	r := newTestRegistry(t)
	mustAdd(t, r, "A", 10, 10)
	mustAdd(t, r, "B", 10, 10)
	mustAdd(t, r, "C", 10, 10)

	if err := r.ChangeActive(1); err != nil {
		t.Fatalf("ChangeActive: %v", err)
	}

	var order []uint32
	for _, info := range r.Snapshot() {
		order = append(order, info.ID)
	}
	if diff := cmp.Diff([]uint32{2, 3, 1}, order); diff != "" {
		t.Fatalf("stacking order (-want +got):\n%s", diff)
	}
}

func TestAddCentres(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 200, 100)

	x, y := w.Position()
	if x != 220 || y != 190 {
		t.Fatalf("Position() = (%v, %v), want (220, 190)", x, y)
	}

	if err := r.Move(w.ID(), 5, -10); err != nil {
		t.Fatalf("Move: %v", err)
	}
	x, y = w.Position()
	if x != 225 || y != 180 {
		t.Fatalf("Position() after Move = (%v, %v), want (225, 180)", x, y)
	}
}

func TestEnqueueRequiresPolling(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 10, 10)

	if err := r.Enqueue(w.ID(), protocol.Event{Kind: protocol.EventPaint}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if n := w.Pending(); n != 0 {
		t.Fatalf("Pending() = %d for a window that is not polling, want 0", n)
	}
}

func TestStopPollingLeavesNothingPending(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 10, 10)

	if _, err := r.StartPolling(w.ID()); err != nil {
		t.Fatalf("StartPolling: %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					w.Enqueue(protocol.Event{Kind: protocol.EventPaint})
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	if err := r.StopPolling(w.ID()); err != nil {
		t.Fatalf("StopPolling: %v", err)
	}
	close(done)
	wg.Wait()

	if n := w.Pending(); n != 0 {
		t.Fatalf("Pending() after StopPolling = %d, want 0", n)
	}
}

func dialEvents(t *testing.T, w *Window) net.Conn {
	t.Helper()
	conn, err := net.Dial("unix", w.EventPath())
	if err != nil {
		t.Fatalf("Dial(%s): %v", w.EventPath(), err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestPollingDeliversFIFO(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 10, 10)

	if _, err := r.StartPolling(w.ID()); err != nil {
		t.Fatalf("StartPolling: %v", err)
	}
	conn := dialEvents(t, w)

	want := []protocol.Event{
		{Kind: protocol.EventKeyPress, Key: protocol.KeyE},
		{Kind: protocol.EventKeyRelease, Key: protocol.KeyE},
		{Kind: protocol.EventPaint},
	}
	for _, ev := range want {
		if err := r.Enqueue(w.ID(), ev); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	var got []protocol.Event
	for range want {
		ev, err := protocol.ReadEvent(conn)
		if err != nil {
			t.Fatalf("ReadEvent: %v", err)
		}
		got = append(got, ev)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
}

func TestStopPollingJoinsWorker(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 10, 10)

	if _, err := r.StartPolling(w.ID()); err != nil {
		t.Fatalf("StartPolling: %v", err)
	}
	conn := dialEvents(t, w)

	worker := w.worker
	if err := r.StopPolling(w.ID()); err != nil {
		t.Fatalf("StopPolling: %v", err)
	}
	if worker.Running() {
		t.Fatal("worker still running after StopPolling")
	}
	if w.Polling() {
		t.Fatal("Polling() = true after StopPolling")
	}

	if err := r.Enqueue(w.ID(), protocol.Event{Kind: protocol.EventPaint}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := protocol.ReadEvent(conn); err == nil {
		t.Fatal("event delivered after StopPolling")
	}

	// Stopping again is a no-op.
	if err := r.StopPolling(w.ID()); err != nil {
		t.Fatalf("second StopPolling: %v", err)
	}
}

func TestStartPollingRestarts(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 10, 10)

	if _, err := r.StartPolling(w.ID()); err != nil {
		t.Fatalf("StartPolling: %v", err)
	}
	first := w.worker

	if _, err := r.StartPolling(w.ID()); err != nil {
		t.Fatalf("second StartPolling: %v", err)
	}
	if first.Running() {
		t.Fatal("first worker still running after restart")
	}
	if w.worker == first || !w.worker.Running() {
		t.Fatal("restart did not start a new worker")
	}
}

func TestConsumerLossStopsPolling(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 10, 10)

	if _, err := r.StartPolling(w.ID()); err != nil {
		t.Fatalf("StartPolling: %v", err)
	}
	worker := w.worker

	conn, err := net.Dial("unix", w.EventPath())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.Close()

	select {
	case <-worker.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after consumer loss")
	}
	if w.Polling() {
		t.Fatal("Polling() = true after consumer loss")
	}
}

func TestRemoveWhilePolling(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 10, 10)

	if _, err := r.StartPolling(w.ID()); err != nil {
		t.Fatalf("StartPolling: %v", err)
	}
	dialEvents(t, w)
	worker := w.worker

	if err := r.Remove(w.ID()); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if worker.Running() {
		t.Fatal("worker still running after Remove")
	}
	if _, err := os.Stat(w.EventPath()); !os.IsNotExist(err) {
		t.Fatalf("event socket still present: %v", err)
	}
}

func TestRelative(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 200, 100)
	w.SetPosition(10, 20)

	tests := []struct {
		in   protocol.Point
		want protocol.Point
	}{
		{protocol.Point{X: 15, Y: 25}, protocol.Point{X: 5, Y: 5}},
		{protocol.Point{X: 10, Y: 20}, protocol.Point{X: 0, Y: 0}},
		{protocol.Point{X: 210, Y: 120}, protocol.Point{X: 200, Y: 100}},
		{protocol.Point{X: 211, Y: 25}, protocol.Point{}},
		{protocol.Point{X: 9, Y: 25}, protocol.Point{}},
		{protocol.Point{X: 15, Y: 121}, protocol.Point{}},
		{protocol.Point{X: 15, Y: 19}, protocol.Point{}},
	}
	for _, tt := range tests {
		if got := w.Relative(tt.in); got != tt.want {
			t.Fatalf("Relative(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	// Fractional origin: the pointer half a pixel left of the edge is outside.
	w.SetPosition(219.5, 20)
	if got := w.Relative(protocol.Point{X: 219, Y: 25}); got != (protocol.Point{}) {
		t.Fatalf("Relative left of fractional origin = %v, want {0 0}", got)
	}
	if got := w.Relative(protocol.Point{X: 221, Y: 25}); got != (protocol.Point{X: 1, Y: 5}) {
		t.Fatalf("Relative inside fractional origin = %v, want {1 5}", got)
	}
}

func TestPointer(t *testing.T) {
	var p Pointer

	p.Set(protocol.Point{X: 10, Y: 10})
	p.Set(protocol.Point{X: 13, Y: 6})

	if got := p.Position(); got != (protocol.Point{X: 13, Y: 6}) {
		t.Fatalf("Position() = %v, want {13 6}", got)
	}
	if got := p.Delta(); got != (protocol.Point{X: 3, Y: -4}) {
		t.Fatalf("Delta() = %v, want {3 -4}", got)
	}
}

func TestCloseRemovesEverything(t *testing.T) {
	r := newTestRegistry(t)
	a := mustAdd(t, r, "A", 10, 10)
	mustAdd(t, r, "B", 10, 10)

	if _, err := r.StartPolling(a.ID()); err != nil {
		t.Fatalf("StartPolling: %v", err)
	}
	worker := a.worker

	r.Close()

	if r.Len() != 0 {
		t.Fatalf("Len() = %d after Close, want 0", r.Len())
	}
	if worker.Running() {
		t.Fatal("worker still running after Close")
	}
	if _, err := r.opts.Buffers.Stat(a.BufferName()); !os.IsNotExist(err) {
		t.Fatalf("buffer still present after Close: %v", err)
	}
}

func TestSetPolling(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 10, 10)

	if err := r.SetPolling(w.ID(), true); err != nil {
		t.Fatalf("SetPolling(true): %v", err)
	}
	if !w.Polling() {
		t.Fatal("Polling() = false after SetPolling(true)")
	}

	if err := r.SetPolling(w.ID(), false); err != nil {
		t.Fatalf("SetPolling(false): %v", err)
	}
	if w.Polling() {
		t.Fatal("Polling() = true after SetPolling(false)")
	}
}

func TestStopPollingIf(t *testing.T) {
	r := newTestRegistry(t)
	w := mustAdd(t, r, "A", 10, 10)

	first, err := r.StartPolling(w.ID())
	if err != nil {
		t.Fatalf("StartPolling: %v", err)
	}
	second, err := r.StartPolling(w.ID())
	if err != nil {
		t.Fatalf("second StartPolling: %v", err)
	}

	if r.StopPollingIf(w.ID(), first) {
		t.Fatal("StopPollingIf stopped a restarted window")
	}
	if !w.Polling() || !second.Running() {
		t.Fatal("restarted worker stopped by a stale handle")
	}

	if !r.StopPollingIf(w.ID(), second) {
		t.Fatal("StopPollingIf did not stop the current worker")
	}
	if w.Polling() || second.Running() {
		t.Fatal("polling still on after StopPollingIf")
	}
	if r.StopPollingIf(99, second) {
		t.Fatal("StopPollingIf reported success for an unknown id")
	}
}
