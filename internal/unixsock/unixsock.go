// Package unixsock creates Unix domain stream listeners with an explicit
// accept backlog.
//
// The standard library always listens with the system maximum backlog. The
// command socket uses a small fixed queue and each event socket accepts a
// single consumer, so the socket is built by hand with x/sys/unix and then
// handed to the net package.
package unixsock

import (
	"io/fs"
	"net"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Mode applied to the directory holding a socket when it must be created.
const dirMode = 0755

var ErrListen = errors.New("cannot listen on unix socket")

// Binds a stream socket at path and listens with the given backlog.
//
// Any stale file at path is removed first and the parent directory is
// created if missing. Closing the returned listener unlinks the socket
// file. On failure every partially created resource is released.
func Listen(path string, backlog int) (*net.UnixListener, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, errors.Wrapf(ErrListen, "create directory for %s: %v", path, err)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(ErrListen, "remove stale socket %s: %v", path, err)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, errors.Wrapf(ErrListen, "socket: %v", err)
	}
	unix.CloseOnExec(fd)

	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(ErrListen, "bind %s: %v", path, err)
	}

	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		os.Remove(path)
		return nil, errors.Wrapf(ErrListen, "listen %s: %v", path, err)
	}

	// FileListener dups the descriptor; the original is closed either way.
	f := os.NewFile(uintptr(fd), path)
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		os.Remove(path)
		return nil, errors.Wrapf(ErrListen, "wrap %s: %v", path, err)
	}

	ul, ok := ln.(*net.UnixListener)
	if !ok {
		ln.Close()
		os.Remove(path)
		return nil, errors.Wrapf(ErrListen, "%s is not a unix listener", path)
	}
	ul.SetUnlinkOnClose(true)

	return ul, nil
}
