// Package server implements the appdrawer display server.
//
// The server listens on a Unix domain socket for fixed-size binary commands
// from client applications. Each accepted connection gets its own
// dispatcher goroutine that reads one command at a time, executes it
// against the window registry and writes one fixed-size response back,
// except for fire-and-forget commands (SEND_PAINT_EVENT) which get none.
// The connection stays open until the client disconnects.
//
// START_POLLING opens a second, per-window socket on which a delivery
// worker streams queued events to the window's owner, so event records
// never interleave with command responses. When a command connection
// closes, polling is stopped for every window that connection started
// polling, and the windows it created are removed if reaping is enabled.
//
// Example usage:
//
//	srv, err := server.New(server.Config{
//	    SocketPath: "/run/user/1000/appdrawer/appdrawer.sock",
//	    Backlog:    20,
//	})
//	if err != nil {
//	    return err
//	}
//
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	srv.Wait()
package server
