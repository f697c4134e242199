// Parses flags and configures logging for the appdrawer server.
//
// The root command accepts the following flags, each also read from the
// environment variable shown:
//
//	-q, --quiet     Suppress informational output.   APPDRAWER_QUIET
//	-v, --verbose   Enable verbose output.           APPDRAWER_VERBOSE
//	-d, --debug     Enable debug output.             APPDRAWER_DEBUG
//	-s, --socket    Command socket path.             APPDRAWER_SOCKET
//	-c, --config    Configuration file path.         APPDRAWER_CONFIG
//
// Flags override the configuration file, which overrides built-in defaults
// and build-time linker flags. After parsing, the global logger is
// reconfigured to reflect the final level and verbosity before the selected
// subcommand runs.
package cli
