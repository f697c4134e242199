package paths

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	appName = "appdrawer"

	// Default permission mode for runtime directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644

	// Default directory backing POSIX shared memory on Linux.
	DefaultBufferDir = "/dev/shm"

	// Default prefix of per-window event socket files.
	DefaultEventPrefix = "window-"

	// Default prefix of per-window shared-memory buffer names.
	DefaultBufferPrefix = "appdrawer-window-"
)

// Path to the directory for runtime files (sockets, PIDs).
//
//	Linux:   $XDG_RUNTIME_DIR/appdrawer or /run/user/<uid>/appdrawer
//	macOS:   ~/Library/Caches/appdrawer/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, appName)
	}
	return filepath.Join(xdg.CacheHome, appName, "run")
}

// Default path to the command socket.
func Socket() string {
	return filepath.Join(Runtime(), appName+".sock")
}

// Default path to the PID file.
func PIDFile() string {
	return filepath.Join(Runtime(), appName+".pid")
}

// Default path to the configuration file.
//
//	Linux:   $XDG_CONFIG_HOME/appdrawer/config.yaml
func ConfigFile() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Derives the names of per-window resources from a window id.
type Naming struct {
	EventDir     string // Directory holding event sockets.
	EventPrefix  string // File name prefix of event sockets.
	BufferPrefix string // Shared-memory name prefix, without the leading slash.
}

// Returns the naming used when nothing is configured.
func DefaultNaming() Naming {
	return Naming{
		EventDir:     Runtime(),
		EventPrefix:  DefaultEventPrefix,
		BufferPrefix: DefaultBufferPrefix,
	}
}

// Path of the event socket for the given window.
func (n Naming) EventSocket(id uint32) string {
	return filepath.Join(n.EventDir, n.EventPrefix+strconv.FormatUint(uint64(id), 10))
}

// POSIX shared-memory name of the given window's pixel buffer. The name
// always starts with a single slash, as shm_open(3) expects.
func (n Naming) BufferName(id uint32) string {
	return "/" + n.BufferPrefix + strconv.FormatUint(uint64(id), 10)
}
