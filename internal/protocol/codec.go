package protocol

import (
	"encoding/binary"
	"io"
)

// Wire byte order of every integer field.
var byteOrder = binary.LittleEndian

// Reads exactly one [Command].
//
// Returns [io.EOF] if the peer closed the connection before sending any
// byte, and [io.ErrUnexpectedEOF] if it closed in the middle of a record.
func ReadCommand(r io.Reader) (Command, error) {
	var cmd Command
	err := binary.Read(r, byteOrder, &cmd)
	return cmd, err
}

// Writes cmd as a single write call.
func WriteCommand(w io.Writer, cmd Command) error {
	return binary.Write(w, byteOrder, &cmd)
}

// Reads exactly one [Response]. EOF handling matches [ReadCommand].
func ReadResponse(r io.Reader) (Response, error) {
	var resp Response
	err := binary.Read(r, byteOrder, &resp)
	return resp, err
}

// Writes resp as a single write call.
func WriteResponse(w io.Writer, resp Response) error {
	return binary.Write(w, byteOrder, &resp)
}

// Reads exactly one [Event]. EOF handling matches [ReadCommand].
func ReadEvent(r io.Reader) (Event, error) {
	var ev Event
	err := binary.Read(r, byteOrder, &ev)
	return ev, err
}

// Writes ev as a single write call.
func WriteEvent(w io.Writer, ev Event) error {
	return binary.Write(w, byteOrder, &ev)
}
