package protocol

import "strconv"

// Identifies the operation requested by a [Command].
type CommandKind uint32

const (
	CmdPing CommandKind = iota
	CmdAddWindow
	CmdRemoveWindow
	CmdStartPolling
	CmdStopPolling
	CmdGetBufferName
	CmdSendPaintEvent
	CmdGetPointerPosition
	CmdGetPointerDelta
)

var commandNames = [...]string{
	CmdPing:               "PING",
	CmdAddWindow:          "ADD_WINDOW",
	CmdRemoveWindow:       "REMOVE_WINDOW",
	CmdStartPolling:       "START_POLLING",
	CmdStopPolling:        "STOP_POLLING",
	CmdGetBufferName:      "GET_BUFFER_NAME",
	CmdSendPaintEvent:     "SEND_PAINT_EVENT",
	CmdGetPointerPosition: "GET_POINTER_POSITION",
	CmdGetPointerDelta:    "GET_POINTER_DELTA",
}

func (k CommandKind) String() string {
	if int(k) < len(commandNames) {
		return commandNames[k]
	}
	return "UNKNOWN(" + strconv.FormatUint(uint64(k), 10) + ")"
}

// Reports whether k is one of the defined command kinds.
func (k CommandKind) Valid() bool {
	return int(k) < len(commandNames)
}

// Reports whether the server answers k with a [Response]. Fire-and-forget
// commands must not be followed by a read on the client side.
func (k CommandKind) HasResponse() bool {
	return k != CmdSendPaintEvent
}

// Identifies which payload field of a [Response] is meaningful.
type ResponseKind uint32

const (
	RespEmpty ResponseKind = iota
	RespWindowID
	RespBufferName
	RespDimensions
	RespPointerPosition
	RespPointerDelta
)

var responseNames = [...]string{
	RespEmpty:           "EMPTY",
	RespWindowID:        "WINDOW_ID",
	RespBufferName:      "BUFFER_NAME",
	RespDimensions:      "DIMENSIONS",
	RespPointerPosition: "POINTER_POSITION",
	RespPointerDelta:    "POINTER_DELTA",
}

func (k ResponseKind) String() string {
	if int(k) < len(responseNames) {
		return responseNames[k]
	}
	return "UNKNOWN(" + strconv.FormatUint(uint64(k), 10) + ")"
}

// Result code carried in every [Response].
//
// The numeric values are part of the wire contract. Note that the zero
// value is ErrInvalidCommand, not ErrOK.
type ErrorKind uint32

const (
	ErrInvalidCommand ErrorKind = iota
	ErrInvalidWindowID
	ErrAddWindowFailed
	ErrOK
	ErrCannotPollEvents
)

var errorNames = [...]string{
	ErrInvalidCommand:   "INVALID_COMMAND",
	ErrInvalidWindowID:  "INVALID_WINDOW_ID",
	ErrAddWindowFailed:  "ADD_WINDOW_FAILED",
	ErrOK:               "OK",
	ErrCannotPollEvents: "CANNOT_POLL_EVENTS",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorNames) {
		return errorNames[k]
	}
	return "UNKNOWN(" + strconv.FormatUint(uint64(k), 10) + ")"
}

// Identifies an [Event].
type EventKind uint32

const (
	EventNone EventKind = iota
	EventCloseWindow
	EventPaint
	EventKeyPress
	EventKeyRelease
	EventMousePress
	EventMouseRelease
	EventMouseMove
)

var eventNames = [...]string{
	EventNone:         "NONE",
	EventCloseWindow:  "CLOSE_WINDOW",
	EventPaint:        "PAINT",
	EventKeyPress:     "KEY_PRESS",
	EventKeyRelease:   "KEY_RELEASE",
	EventMousePress:   "MOUSE_PRESS",
	EventMouseRelease: "MOUSE_RELEASE",
	EventMouseMove:    "MOUSE_MOVE",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "UNKNOWN(" + strconv.FormatUint(uint64(k), 10) + ")"
}

// Reports whether events of kind k are emitted at frame rate. Such events
// are counted but not logged individually.
func (k EventKind) Frequent() bool {
	return k == EventPaint || k == EventMouseMove
}

// Mouse button carried by mouse press/release events. Wheel motion is
// reported as a press of MouseUp or MouseDown.
type MouseButton uint32

const (
	MouseUp MouseButton = iota
	MouseDown
	MouseLeft
	MouseRight
	MouseMiddle
)

var mouseNames = [...]string{
	MouseUp:     "UP",
	MouseDown:   "DOWN",
	MouseLeft:   "LEFT",
	MouseRight:  "RIGHT",
	MouseMiddle: "MIDDLE",
}

func (b MouseButton) String() string {
	if int(b) < len(mouseNames) {
		return mouseNames[b]
	}
	return "UNKNOWN(" + strconv.FormatUint(uint64(b), 10) + ")"
}
