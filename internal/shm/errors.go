package shm

import "github.com/pkg/errors"

var (
	ErrBuffer = errors.New("buffer error")
	ErrName   = errors.New("invalid buffer name")
	ErrSize   = errors.New("invalid buffer size")
)
