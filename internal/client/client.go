package client

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/cruciblehq/appdrawer/internal/paths"
	"github.com/cruciblehq/appdrawer/internal/protocol"
	"github.com/cruciblehq/appdrawer/internal/shm"
)

// Client configuration. Must match the server's naming.
type Options struct {
	Naming    paths.Naming // Event socket and buffer naming. Zero uses [paths.DefaultNaming].
	BufferDir string       // Shared-memory directory. Empty uses /dev/shm.
}

// A connection to the command socket.
type Client struct {
	conn    net.Conn
	naming  paths.Naming
	buffers *shm.Manager
	mu      sync.Mutex
}

// Connects to the command socket at path.
func Dial(ctx context.Context, path string, opts Options) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, errors.Wrapf(ErrConnection, "dial %s: %v", path, err)
	}

	naming := opts.Naming
	if naming == (paths.Naming{}) {
		naming = paths.DefaultNaming()
	}

	return &Client{
		conn:    conn,
		naming:  naming,
		buffers: shm.NewManager(opts.BufferDir),
	}, nil
}

// Closes the command connection. The server stops polling for every window
// polled through it.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Sets read and write deadlines on the command connection. A zero t clears
// them.
func (c *Client) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// Sends cmd and, unless it is fire-and-forget, reads the response.
//
// The response is returned as received; a non-OK result code is not an
// error here.
func (c *Client) Do(cmd protocol.Command) (protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := protocol.WriteCommand(c.conn, cmd); err != nil {
		return protocol.Response{}, errors.Wrapf(ErrConnection, "send %s: %v", cmd.Kind, err)
	}
	if !cmd.Kind.HasResponse() {
		return protocol.Response{}, nil
	}

	resp, err := protocol.ReadResponse(c.conn)
	if err != nil {
		return protocol.Response{}, errors.Wrapf(ErrConnection, "receive %s: %v", cmd.Kind, err)
	}
	return resp, nil
}

// Performs a round-trip and checks the result code and response kind.
func (c *Client) call(cmd protocol.Command, want protocol.ResponseKind) (protocol.Response, error) {
	resp, err := c.Do(cmd)
	if err != nil {
		return resp, err
	}
	if !resp.OK() {
		return resp, &ResponseError{Command: cmd.Kind, Kind: resp.Error}
	}
	if resp.Kind != want {
		return resp, errors.Wrapf(ErrProtocol, "%s answered with %s, want %s", cmd.Kind, resp.Kind, want)
	}
	return resp, nil
}

// Checks that the server answers commands.
func (c *Client) Ping() error {
	_, err := c.call(protocol.Command{Kind: protocol.CmdPing}, protocol.RespEmpty)
	return err
}

// Creates a window and returns its id.
func (c *Client) AddWindow(title string, width, height uint32) (uint32, error) {
	cmd := protocol.Command{Kind: protocol.CmdAddWindow, Width: width, Height: height}
	cmd.SetTitle(title)

	resp, err := c.call(cmd, protocol.RespWindowID)
	if err != nil {
		return 0, err
	}
	return resp.WindowID, nil
}

// Removes a window and destroys its buffer.
func (c *Client) RemoveWindow(id uint32) error {
	_, err := c.call(protocol.Command{Kind: protocol.CmdRemoveWindow, WindowID: id}, protocol.RespEmpty)
	return err
}

// Starts polling and connects to the window's event socket.
func (c *Client) StartPolling(id uint32) (*EventStream, error) {
	if _, err := c.call(protocol.Command{Kind: protocol.CmdStartPolling, WindowID: id}, protocol.RespEmpty); err != nil {
		return nil, err
	}

	path := c.naming.EventSocket(id)
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, errors.Wrapf(ErrConnection, "dial %s: %v", path, err)
	}
	return &EventStream{conn: conn}, nil
}

// Stops event delivery for a window. Succeeds if it was not polling.
func (c *Client) StopPolling(id uint32) error {
	_, err := c.call(protocol.Command{Kind: protocol.CmdStopPolling, WindowID: id}, protocol.RespEmpty)
	return err
}

// Returns the shared-memory name of a window's pixel buffer.
func (c *Client) BufferName(id uint32) (string, error) {
	resp, err := c.call(protocol.Command{Kind: protocol.CmdGetBufferName, WindowID: id}, protocol.RespBufferName)
	if err != nil {
		return "", err
	}
	return resp.BufferNameString(), nil
}

// Asks the server to queue a paint event for the window. No response is
// sent, so unknown ids are not reported.
func (c *Client) SendPaintEvent(id uint32) error {
	_, err := c.Do(protocol.Command{Kind: protocol.CmdSendPaintEvent, WindowID: id})
	return err
}

// Returns the pointer position relative to the window.
func (c *Client) PointerPosition(id uint32) (protocol.Point, error) {
	resp, err := c.call(protocol.Command{Kind: protocol.CmdGetPointerPosition, WindowID: id}, protocol.RespPointerPosition)
	if err != nil {
		return protocol.Point{}, err
	}
	return resp.PointerPosition, nil
}

// Returns the pointer movement since the previous frame.
func (c *Client) PointerDelta() (protocol.Point, error) {
	resp, err := c.call(protocol.Command{Kind: protocol.CmdGetPointerDelta}, protocol.RespPointerDelta)
	if err != nil {
		return protocol.Point{}, err
	}
	return resp.PointerDelta, nil
}

// Maps the pixel buffer of a window created with the given size. The
// caller releases it with [shm.Buffer.Close].
func (c *Client) MapBuffer(id, width, height uint32) (*shm.Buffer, error) {
	name, err := c.BufferName(id)
	if err != nil {
		return nil, err
	}
	return c.buffers.Open(name, width, height)
}

// Reads events from a window's event socket.
type EventStream struct {
	conn net.Conn
}

// Blocks until the next event arrives. Returns io.EOF once the server
// stops delivering.
func (s *EventStream) Next() (protocol.Event, error) {
	return protocol.ReadEvent(s.conn)
}

// Underlying connection, e.g. for read deadlines.
func (s *EventStream) Conn() net.Conn {
	return s.conn
}

// Disconnects from the event socket. The server treats this as consumer
// loss and stops polling the window.
func (s *EventStream) Close() error {
	return s.conn.Close()
}
