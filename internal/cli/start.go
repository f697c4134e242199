package cli

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/cruciblehq/appdrawer/internal/admin"
	"github.com/cruciblehq/appdrawer/internal/metrics"
	"github.com/cruciblehq/appdrawer/internal/server"
)

// Represents the 'appdrawer start' command.
type StartCmd struct {
	Admin string `env:"APPDRAWER_ADMIN" help:"Serve metrics and status over HTTP on this address." placeholder:"HOST:PORT"`
	Reap  bool   `env:"APPDRAWER_REAP" help:"Remove the windows of a client when its command connection closes."`
}

// Executes the start command.
//
// Starts the server on its Unix domain socket, and the admin endpoint when
// an address is configured, then blocks until the context is cancelled
// (e.g. via SIGINT or SIGTERM) or the admin endpoint fails.
func (c *StartCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if c.Admin != "" {
		cfg.Admin.Address = c.Admin
	}
	if c.Reap {
		cfg.ReapOnDisconnect = true
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	scfg := cfg.Server()
	scfg.Metrics = metrics.New(reg)

	srv, err := server.New(scfg)
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	slog.Info("appdrawer is running")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if cfg.Admin.Address != "" {
		handler := admin.NewHandler(srv.Registry(), reg)
		g.Go(func() error {
			return admin.Serve(gctx, cfg.Admin.Address, handler)
		})
	}

	err = g.Wait()

	slog.Info("shutting down")
	if stopErr := srv.Stop(); err == nil {
		err = stopErr
	}
	return err
}
