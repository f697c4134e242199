package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/cruciblehq/appdrawer/internal"
	"github.com/cruciblehq/appdrawer/internal/config"
	"github.com/cruciblehq/appdrawer/internal/paths"
)

// Represents the root command for the appdrawer server.
var RootCmd struct {
	Quiet   bool       `short:"q" env:"APPDRAWER_QUIET" help:"Suppress informational output."`
	Verbose bool       `short:"v" env:"APPDRAWER_VERBOSE" help:"Enable verbose output."`
	Debug   bool       `short:"d" env:"APPDRAWER_DEBUG" help:"Enable debug output."`
	Socket  string     `short:"s" env:"APPDRAWER_SOCKET" help:"Override the command socket path." placeholder:"PATH"`
	Config  string     `short:"c" env:"APPDRAWER_CONFIG" help:"Configuration file." placeholder:"PATH"`
	Start   StartCmd   `cmd:"" help:"Start the server."`
	Ping    PingCmd    `cmd:"" help:"Check that the server answers on its socket."`
	Status  StatusCmd  `cmd:"" help:"Show whether the server is running."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("A minimal local display server.\n\nClients create windows backed by shared memory over a Unix domain socket and receive input events on a per-window socket."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	if RootCmd.Debug {
		internal.SetDebug(true)
	}
	if RootCmd.Quiet {
		internal.SetQuiet(true)
	}
	if RootCmd.Verbose {
		internal.SetVerbose(true)
	}

	handler := internal.NewLogHandler(os.Stderr, internal.LogLevel(), internal.IsVerbose())
	slog.SetDefault(slog.New(handler))
}

// Loads the configuration file and applies flag overrides.
func loadConfig() (config.Config, error) {
	path := RootCmd.Config
	if path == "" {
		path = paths.ConfigFile()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if RootCmd.Socket != "" {
		cfg.Socket = RootCmd.Socket
	}
	if cfg.Socket == "" {
		cfg.Socket = paths.Socket()
	}

	slog.Debug("configuration loaded", "path", path, "socket", cfg.Socket)

	return cfg, nil
}
