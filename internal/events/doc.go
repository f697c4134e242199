// Package events queues input events for a window and streams them to the
// window's owner over a dedicated Unix socket.
//
// A [Queue] is an unbounded FIFO with a blocking [Queue.Pop]. A [Worker]
// owns one event socket: it listens, accepts a single consumer, and writes
// fixed-size event records from the queue until it is stopped or the
// consumer goes away. Any read result on the consumer connection (bytes,
// EOF or error) counts as consumer loss.
//
// Example usage:
//
//	q := events.NewQueue()
//	w, err := events.Start(events.Config{
//	    Path:         "/run/user/1000/appdrawer/window-1",
//	    Queue:        q,
//	    ReadyTimeout: 2 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	q.Push(protocol.Event{Kind: protocol.EventPaint})
//	...
//	w.Stop()
package events
