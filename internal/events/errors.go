package events

import "github.com/pkg/errors"

var (
	ErrNotReady = errors.New("event socket not ready")
	ErrListen   = errors.New("cannot listen for event consumer")
)
