package protocol

import "bytes"

const (

	// Capacity of the title field of a [Command], including the NUL
	// terminator.
	TitleSize = 256

	// Capacity of the buffer name field of a [Response], including the NUL
	// terminator.
	NameSize = 256

	// Encoded record sizes.
	CommandSize  = 4 + 4 + 4 + TitleSize + 4
	ResponseSize = 4 + 4 + 4 + NameSize + 8 + 8 + 8
	EventSize    = 4 + 4 + 4
)

// Unsigned pair, used for window dimensions.
type Vec2 struct {
	X uint32
	Y uint32
}

// Signed pair, used for pointer coordinates.
type Point struct {
	X int32
	Y int32
}

// Request sent by a client on the command socket. Only the fields relevant
// to Kind are read; the others must be zero.
type Command struct {
	Kind     CommandKind
	Width    uint32
	Height   uint32
	Title    [TitleSize]byte
	WindowID uint32
}

// Reply to a [Command].
type Response struct {
	Kind            ResponseKind
	Error           ErrorKind
	WindowID        uint32
	BufferName      [NameSize]byte
	Dimensions      Vec2
	PointerPosition Point
	PointerDelta    Point
}

// Asynchronous notification streamed on a window's event socket.
type Event struct {
	Kind        EventKind
	Key         Key
	MouseButton MouseButton
}

// Stores s as a NUL-terminated title, truncating to TitleSize-1 bytes.
func (c *Command) SetTitle(s string) {
	putString(c.Title[:], s)
}

// Returns the title up to its first NUL byte.
func (c *Command) TitleString() string {
	return cString(c.Title[:])
}

// Returns the buffer name up to its first NUL byte.
func (r *Response) BufferNameString() string {
	return cString(r.BufferName[:])
}

// Reports whether the response carries ErrOK.
func (r *Response) OK() bool {
	return r.Error == ErrOK
}

// Returns an empty response carrying the given result code.
func Status(kind ErrorKind) Response {
	return Response{Kind: RespEmpty, Error: kind}
}

// Returns an empty successful response.
func OK() Response {
	return Status(ErrOK)
}

// Returns a successful response carrying a window id.
func WindowIDResponse(id uint32) Response {
	return Response{Kind: RespWindowID, Error: ErrOK, WindowID: id}
}

// Returns a successful response carrying a buffer name. Names longer than
// NameSize-1 bytes are truncated.
func BufferNameResponse(name string) Response {
	resp := Response{Kind: RespBufferName, Error: ErrOK}
	putString(resp.BufferName[:], name)
	return resp
}

// Returns a successful response carrying a pointer position.
func PointerPositionResponse(p Point) Response {
	return Response{Kind: RespPointerPosition, Error: ErrOK, PointerPosition: p}
}

// Returns a successful response carrying a pointer delta.
func PointerDeltaResponse(d Point) Response {
	return Response{Kind: RespPointerDelta, Error: ErrOK, PointerDelta: d}
}

// Copies s into dst, zeroing the remainder and always leaving room for a
// terminating NUL.
func putString(dst []byte, s string) {
	n := copy(dst[:len(dst)-1], s)
	clear(dst[n:])
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
