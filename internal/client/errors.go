package client

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/cruciblehq/appdrawer/internal/protocol"
)

var (
	ErrConnection = errors.New("connection error")
	ErrProtocol   = errors.New("unexpected response")
)

// Result code other than OK returned by the server.
type ResponseError struct {
	Command protocol.CommandKind
	Kind    protocol.ErrorKind
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Kind)
}

// Returns the result code carried by err, or ErrOK if err is not a
// [ResponseError].
func Code(err error) protocol.ErrorKind {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Kind
	}
	return protocol.ErrOK
}
