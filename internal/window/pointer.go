package window

import (
	"sync"

	"github.com/cruciblehq/appdrawer/internal/protocol"
)

// Last two known pointer positions in screen coordinates. The compositor
// calls [Pointer.Set] once per frame.
type Pointer struct {
	mu       sync.Mutex
	current  protocol.Point
	previous protocol.Point
}

// Records a new position; the old current position becomes the previous.
func (p *Pointer) Set(pt protocol.Point) {
	p.mu.Lock()
	p.previous = p.current
	p.current = pt
	p.mu.Unlock()
}

// Returns the current position.
func (p *Pointer) Position() protocol.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Returns current minus previous.
func (p *Pointer) Delta() protocol.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return protocol.Point{
		X: p.current.X - p.previous.X,
		Y: p.current.Y - p.previous.Y,
	}
}
