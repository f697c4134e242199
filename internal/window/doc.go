// Package window holds the server-side state of client windows.
//
// A [Window] couples a client's geometry with its shared-memory pixel
// buffer, its event queue and its polling/active flags. The [Registry]
// keeps windows in stacking order (the tail is drawn last and is the
// active window) and guards every structural change with one lock held
// for the whole operation, including the bounded wait for a delivery
// worker's socket and the join of a stopping worker.
//
// Flags that delivery workers touch without the registry lock (polling,
// active) are atomics. Worker exit callbacks never take the registry lock.
//
// The registry is also the surface the compositor drives: [Registry.Snapshot]
// for drawing, [Registry.ChangeActive] on a focus click, [Registry.Move]
// while dragging and [Registry.Enqueue] for input events. [Pointer] tracks
// the global pointer position and its per-frame delta.
package window
