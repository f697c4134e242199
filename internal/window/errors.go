package window

import "github.com/pkg/errors"

var (
	ErrNotFound = errors.New("window not found")
)
