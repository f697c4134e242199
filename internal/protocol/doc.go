// Package protocol defines the binary records exchanged between appdrawer
// and its clients.
//
// Every record has a fixed size and a fixed field layout: 32-bit
// little-endian integers and fixed-capacity, NUL-padded byte arrays, with no
// padding between fields. A client sends one [Command] at a time on the
// command socket and, unless the command is fire-and-forget (see
// [CommandKind.HasResponse]), reads exactly one [Response] back. Events are
// streamed as a sequence of [Event] records on a separate per-window socket.
//
//	Command  (272 bytes)  kind | width | height | title[256] | window_id
//	Response (292 bytes)  kind | error | window_id | buffer_name[256] |
//	                      dimensions{u32,u32} | pointer_position{i32,i32} |
//	                      pointer_delta{i32,i32}
//	Event    (12 bytes)   kind | key | mouse_button
package protocol
