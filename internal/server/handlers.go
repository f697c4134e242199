package server

import (
	"io"
	"log/slog"
	"net"

	"github.com/pkg/errors"

	"github.com/cruciblehq/appdrawer/internal/events"
	"github.com/cruciblehq/appdrawer/internal/metrics"
	"github.com/cruciblehq/appdrawer/internal/protocol"
	"github.com/cruciblehq/appdrawer/internal/shm"
	"github.com/cruciblehq/appdrawer/internal/window"
)

// Per-connection command state.
type dispatcher struct {
	s      *Server
	conn   net.Conn
	polled map[uint32]*events.Worker // Workers this connection started, by window.
	owned  map[uint32]bool           // Windows this connection created.
}

// Processes a single connection.
//
// Reads fixed-size commands until the peer disconnects or a read fails,
// answering each one that expects a response. Nothing is written for a
// command whose response kind is fire-and-forget.
func (s *Server) handle(conn net.Conn) {
	defer s.untrack(conn)
	defer conn.Close()

	d := &dispatcher{
		s:      s,
		conn:   conn,
		polled: make(map[uint32]*events.Worker),
		owned:  make(map[uint32]bool),
	}
	defer d.release()

	slog.Debug("client connected")

	for {
		cmd, err := protocol.ReadCommand(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("read error", "error", err)
			}
			return
		}

		resp := d.dispatch(cmd)

		if !cmd.Kind.HasResponse() {
			continue
		}
		if err := protocol.WriteResponse(conn, resp); err != nil {
			slog.Debug("write error", "error", err)
			return
		}
	}
}

// Routes a command to the appropriate handler and records the outcome.
func (d *dispatcher) dispatch(cmd protocol.Command) protocol.Response {
	if cmd.Kind != protocol.CmdSendPaintEvent {
		slog.Debug("command received", "command", cmd.Kind, "id", cmd.WindowID)
	}

	var resp protocol.Response
	switch cmd.Kind {
	case protocol.CmdPing:
		resp = protocol.OK()
	case protocol.CmdAddWindow:
		resp = d.handleAddWindow(cmd)
	case protocol.CmdRemoveWindow:
		resp = d.handleRemoveWindow(cmd)
	case protocol.CmdStartPolling:
		resp = d.handleStartPolling(cmd)
	case protocol.CmdStopPolling:
		resp = d.handleStopPolling(cmd)
	case protocol.CmdGetBufferName:
		resp = d.handleGetBufferName(cmd)
	case protocol.CmdSendPaintEvent:
		resp = d.handleSendPaintEvent(cmd)
	case protocol.CmdGetPointerPosition:
		resp = d.handleGetPointerPosition(cmd)
	case protocol.CmdGetPointerDelta:
		resp = protocol.PointerDeltaResponse(d.s.pointer.Delta())
	default:
		slog.Warn("unknown command", "command", cmd.Kind)
		resp = protocol.Status(protocol.ErrInvalidCommand)
	}

	result := metrics.ResultOK
	if !resp.OK() {
		result = metrics.ResultError
	}
	d.s.metrics.Command(commandLabel(cmd.Kind), result)

	return resp
}

// Handles an add-window command.
//
// Creates the window and its shared-memory buffer; the new window becomes
// the active one.
func (d *dispatcher) handleAddWindow(cmd protocol.Command) protocol.Response {
	w, err := d.s.registry.Add(cmd.TitleString(), cmd.Width, cmd.Height)
	if err != nil {
		return d.fail(cmd, err)
	}
	d.owned[w.ID()] = true
	return protocol.WindowIDResponse(w.ID())
}

// Handles a remove-window command.
func (d *dispatcher) handleRemoveWindow(cmd protocol.Command) protocol.Response {
	if err := d.s.registry.Remove(cmd.WindowID); err != nil {
		return d.fail(cmd, err)
	}
	delete(d.polled, cmd.WindowID)
	delete(d.owned, cmd.WindowID)
	return protocol.OK()
}

// Handles a start-polling command.
//
// Responds only once the window's event socket accepts connections, so the
// client can connect as soon as it reads the response.
func (d *dispatcher) handleStartPolling(cmd protocol.Command) protocol.Response {
	worker, err := d.s.registry.StartPolling(cmd.WindowID)
	if err != nil {
		return d.fail(cmd, err)
	}
	d.polled[cmd.WindowID] = worker
	return protocol.OK()
}

// Handles a stop-polling command.
func (d *dispatcher) handleStopPolling(cmd protocol.Command) protocol.Response {
	if err := d.s.registry.StopPolling(cmd.WindowID); err != nil {
		return d.fail(cmd, err)
	}
	delete(d.polled, cmd.WindowID)
	return protocol.OK()
}

// Handles a get-buffer-name command.
func (d *dispatcher) handleGetBufferName(cmd protocol.Command) protocol.Response {
	name, err := d.s.registry.BufferName(cmd.WindowID)
	if err != nil {
		return d.fail(cmd, err)
	}
	return protocol.BufferNameResponse(name)
}

// Handles a send-paint-event command. The response is never sent; unknown
// ids are only logged.
func (d *dispatcher) handleSendPaintEvent(cmd protocol.Command) protocol.Response {
	err := d.s.registry.Enqueue(cmd.WindowID, protocol.Event{Kind: protocol.EventPaint})
	if err != nil {
		slog.Debug("paint event for unknown window", "id", cmd.WindowID)
		return protocol.Status(errorKind(err))
	}
	return protocol.OK()
}

// Handles a get-pointer-position command.
//
// The position is relative to the window's origin and is (0,0) when the
// pointer is outside the window.
func (d *dispatcher) handleGetPointerPosition(cmd protocol.Command) protocol.Response {
	w, err := d.s.registry.Find(cmd.WindowID)
	if err != nil {
		return d.fail(cmd, err)
	}
	return protocol.PointerPositionResponse(w.Relative(d.s.pointer.Position()))
}

// Logs a failed command and returns its error response.
func (d *dispatcher) fail(cmd protocol.Command, err error) protocol.Response {
	kind := errorKind(err)
	slog.Warn("command failed", "command", cmd.Kind, "id", cmd.WindowID, "result", kind, "error", err)
	return protocol.Status(kind)
}

// Releases what the connection leaves behind: polling it started is
// stopped unless another connection has restarted it since, and with reaping
// enabled the windows it created are removed.
func (d *dispatcher) release() {
	for id, worker := range d.polled {
		if d.s.registry.StopPollingIf(id, worker) {
			slog.Info("polling stopped on disconnect", "id", id)
		}
	}

	if !d.s.reap {
		return
	}
	for id := range d.owned {
		if err := d.s.registry.Remove(id); err == nil {
			slog.Info("window reaped on disconnect", "id", id)
		}
	}
}

// Maps an operation error to the result code sent to the client.
func errorKind(err error) protocol.ErrorKind {
	switch {
	case err == nil:
		return protocol.ErrOK
	case errors.Is(err, window.ErrNotFound):
		return protocol.ErrInvalidWindowID
	case errors.Is(err, shm.ErrBuffer):
		return protocol.ErrAddWindowFailed
	case errors.Is(err, events.ErrNotReady), errors.Is(err, events.ErrListen):
		return protocol.ErrCannotPollEvents
	default:
		return protocol.ErrInvalidCommand
	}
}

// Metric label for a command kind. Unknown kinds share one label.
func commandLabel(k protocol.CommandKind) string {
	if !k.Valid() {
		return "UNKNOWN"
	}
	return k.String()
}
