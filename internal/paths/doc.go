// Provides the filesystem locations and resource names used by appdrawer.
//
// Global locations (runtime directory, command socket, PID file, config
// file) follow XDG conventions on Linux. Per-window names (the event socket
// and the shared-memory buffer) are derived by a single [Naming] value so
// that the code that creates a resource and the code that looks it up can
// never disagree.
package paths
