package shm

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (

	// Directory backing POSIX shared memory on Linux.
	DefaultDir = "/dev/shm"

	// Bytes per RGBA8 pixel.
	BytesPerPixel = 4

	// Permissions of newly created segments, before umask. Clients run as
	// other users map buffers read-write.
	segmentMode = 0666

	// Value written to every byte of a new buffer (opaque white).
	fillByte = 0xFF
)

// Reserves backing storage for the first size bytes of fd. Filesystems that
// cannot preallocate are left to allocate on first write.
var allocate = func(fd int, size int64) error {
	err := unix.Fallocate(fd, 0, 0, size)
	if err == unix.EOPNOTSUPP {
		return nil
	}
	return err
}

// Creates, opens and destroys shared-memory buffers below one directory.
type Manager struct {
	dir string
}

// Returns a manager rooted at dir. An empty dir selects [DefaultDir].
func NewManager(dir string) *Manager {
	if dir == "" {
		dir = DefaultDir
	}
	return &Manager{dir: dir}
}

// Directory holding the segments.
func (m *Manager) Dir() string {
	return m.dir
}

// A mapped shared-memory buffer.
type Buffer struct {
	name   string
	path   string
	fd     int
	data   []byte
	width  uint32
	height uint32
	owner  bool
}

// Shared-memory name, e.g. "/appdrawer-window-1".
func (b *Buffer) Name() string { return b.name }

// Mapped pixel bytes. Nil once the buffer is closed.
func (b *Buffer) Data() []byte { return b.data }

// Length of the mapping in bytes.
func (b *Buffer) Size() int { return len(b.data) }

// Width in pixels.
func (b *Buffer) Width() uint32 { return b.width }

// Height in pixels.
func (b *Buffer) Height() uint32 { return b.height }

// Returns width × height × 4, or [ErrSize] if either dimension is zero or the
// product does not fit in an int.
func Size(width, height uint32) (int, error) {
	if width == 0 || height == 0 {
		return 0, errors.Wrapf(ErrSize, "%dx%d has no pixels", width, height)
	}
	n := uint64(width) * uint64(height) * BytesPerPixel
	if n > math.MaxInt {
		return 0, errors.Wrapf(ErrSize, "%dx%d is too large", width, height)
	}
	return int(n), nil
}

// Maps a shared-memory name to its backing file.
//
// Names must be a single slash followed by a non-empty component with no
// further slashes, as required by shm_open(3).
func (m *Manager) Path(name string) (string, error) {
	base, ok := strings.CutPrefix(name, "/")
	if !ok || base == "" || strings.Contains(base, "/") || base == "." || base == ".." {
		return "", errors.Wrapf(ErrName, "%q", name)
	}
	return filepath.Join(m.dir, base), nil
}

// Creates the named segment, sizes it to width×height×4 bytes, maps it
// read-write and fills it with 0xFF.
//
// An existing segment with the same name (left over from a crashed run) is
// reused and resized. If any step fails, every earlier step is undone before
// the error is returned: nothing stays mapped, open or linked.
func (m *Manager) Create(name string, width, height uint32) (*Buffer, error) {
	size, err := Size(width, height)
	if err != nil {
		return nil, errors.Wrap(ErrBuffer, err.Error())
	}

	path, err := m.Path(name)
	if err != nil {
		return nil, errors.Wrap(ErrBuffer, err.Error())
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_NOFOLLOW|unix.O_CLOEXEC, segmentMode)
	if err != nil {
		return nil, errors.Wrapf(ErrBuffer, "open %s: %v", name, err)
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		unix.Unlink(path)
		return nil, errors.Wrapf(ErrBuffer, "truncate %s to %d bytes: %v", name, size, err)
	}

	// Ftruncate leaves tmpfs pages unbacked; touching them with no room left
	// raises SIGBUS, so the space is reserved up front.
	if err := allocate(fd, int64(size)); err != nil {
		unix.Close(fd)
		unix.Unlink(path)
		return nil, errors.Wrapf(ErrBuffer, "allocate %d bytes for %s: %v", size, name, err)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		unix.Unlink(path)
		return nil, errors.Wrapf(ErrBuffer, "mmap %s: %v", name, err)
	}

	fill(data, fillByte)

	slog.Debug("buffer created", "name", name, "width", width, "height", height, "bytes", size)

	return &Buffer{
		name:   name,
		path:   path,
		fd:     fd,
		data:   data,
		width:  width,
		height: height,
		owner:  true,
	}, nil
}

// Maps an existing segment created by another process.
//
// The segment must be at least width×height×4 bytes. The returned buffer is
// released with [Buffer.Close]; it is never unlinked by this process.
func (m *Manager) Open(name string, width, height uint32) (*Buffer, error) {
	size, err := Size(width, height)
	if err != nil {
		return nil, errors.Wrap(ErrBuffer, err.Error())
	}

	path, err := m.Path(name)
	if err != nil {
		return nil, errors.Wrap(ErrBuffer, err.Error())
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(ErrBuffer, "open %s: %v", name, err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(ErrBuffer, "stat %s: %v", name, err)
	}
	if st.Size < int64(size) {
		unix.Close(fd)
		return nil, errors.Wrapf(ErrSize, "%s holds %d bytes, need %d", name, st.Size, size)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(ErrBuffer, "mmap %s: %v", name, err)
	}

	return &Buffer{
		name:   name,
		path:   path,
		fd:     fd,
		data:   data,
		width:  width,
		height: height,
	}, nil
}

// Returns file information for the named segment. The error satisfies
// os.IsNotExist when the segment does not exist.
func (m *Manager) Stat(name string) (os.FileInfo, error) {
	path, err := m.Path(name)
	if err != nil {
		return nil, err
	}
	return os.Stat(path)
}

// Unmaps and closes b, then unlinks its segment if this process created it.
//
// Each step is attempted even if an earlier one fails; failures are logged
// and the first one is returned. Destroying an already destroyed buffer is
// a no-op.
func (m *Manager) Destroy(b *Buffer) error {
	err := b.Close()

	if b.owner {
		b.owner = false
		if uerr := unix.Unlink(b.path); uerr != nil {
			slog.Error("failed to unlink buffer", "name", b.name, "error", uerr)
			if err == nil {
				err = errors.Wrapf(ErrBuffer, "unlink %s: %v", b.name, uerr)
			}
		}
	}

	if err == nil {
		slog.Debug("buffer destroyed", "name", b.name)
	}
	return err
}

// Unmaps and closes b without unlinking it. Failures are logged, both steps
// are always attempted and the first failure is returned.
func (b *Buffer) Close() error {
	var err error

	if b.data != nil {
		if merr := unix.Munmap(b.data); merr != nil {
			slog.Error("failed to unmap buffer", "name", b.name, "error", merr)
			err = errors.Wrapf(ErrBuffer, "munmap %s: %v", b.name, merr)
		}
		b.data = nil
	}

	if b.fd >= 0 {
		if cerr := unix.Close(b.fd); cerr != nil {
			slog.Error("failed to close buffer", "name", b.name, "error", cerr)
			if err == nil {
				err = errors.Wrapf(ErrBuffer, "close %s: %v", b.name, cerr)
			}
		}
		b.fd = -1
	}

	return err
}

// Sets every byte of b to v by doubling copies.
func fill(b []byte, v byte) {
	if len(b) == 0 {
		return
	}
	b[0] = v
	for n := 1; n < len(b); n *= 2 {
		copy(b[n:], b[:n])
	}
}
