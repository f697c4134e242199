// Package shm manages the shared-memory pixel buffers backing windows.
//
// A buffer is a named POSIX shared-memory object holding tightly packed
// RGBA8 rows (4 bytes per pixel, no header, no row padding). The server
// creates, maps and destroys buffers through a [Manager]; the owning client
// opens the same name with [Manager.Open] (or shm_open(3)) and writes pixels
// into its own mapping. The server never touches pixel content after the
// initial fill with opaque white.
//
// On Linux a shared-memory name "/foo" is the file /dev/shm/foo, so the
// manager works directly on files under a configurable directory. Tests
// point that directory at a temporary location.
//
// Example usage:
//
//	m := shm.NewManager(shm.DefaultDir)
//
//	buf, err := m.Create("/appdrawer-window-1", 200, 100)
//	if err != nil {
//	    return err
//	}
//	defer m.Destroy(buf)
package shm
